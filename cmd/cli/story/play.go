package story

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/storyloom/storyloom/internal/graph"
	"github.com/storyloom/storyloom/internal/models"
	"github.com/storyloom/storyloom/internal/playback"
	"github.com/storyloom/storyloom/internal/sandbox"
)

var Group = &cobra.Group{
	ID:    "story",
	Title: "Story operations",
}

func init() {
	Play.Flags().String("start", "", "node id to start from (defaults to the first node)")
	Play.Flags().Duration("reveal", playback.DefaultRevealInterval, "typed-text reveal interval")
}

var Play = &cobra.Command{
	Use:     "play [story.json]",
	GroupID: "story",
	Short:   "Play a story in the terminal",
	Long:    `Walks a story document interactively, running node scripts in the sandbox`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}))

		document, err := os.ReadFile(args[0])
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "read story: %v\n", err)
			return
		}
		var doc models.Story
		if err = json.Unmarshal(document, &doc); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "decode story: %v\n", err)
			return
		}
		if len(doc.Nodes) == 0 {
			_, _ = fmt.Fprintln(os.Stderr, "story has no nodes")
			return
		}

		startID, _ := cmd.Flags().GetString("start")
		if startID == "" {
			startID = doc.Nodes[0].ID
		}
		interval, _ := cmd.Flags().GetDuration("reveal")

		store := graph.NewStore(logger, doc.Nodes)
		engine := sandbox.NewEngine(logger)
		defer engine.Close()
		sink := sandbox.NewMemoryLog()
		surface := sandbox.NewMemorySurface()

		controller := playback.NewController(logger, store, doc.WorldSettings, engine, sink, surface)
		controller.SetRevealInterval(interval)

		if err = controller.Start(startID, time.Now()); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "start playback: %v\n", err)
			return
		}

		input := bufio.NewScanner(os.Stdin)
		seenLogs := 0
		for {
			node, ok := controller.Current()
			if !ok {
				return
			}
			printHeader(node)
			revealContent(controller, interval)
			seenLogs = printLogs(sink, seenLogs)
			if markup := surface.HTML(); markup != "" {
				fmt.Printf("\n%s\n", markup)
			}

			if controller.Status() == playback.StatusEnded {
				fmt.Println("\n-- The End --")
				return
			}

			choice, quit := promptChoice(input, controller.Choices())
			if quit {
				controller.Stop()
				return
			}
			if err = controller.Choose(choice, time.Now()); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "choose: %v\n", err)
				return
			}
		}
	},
}

func printHeader(node models.Node) {
	fmt.Printf("\n=== %s ===\n", node.Title)
	if node.Speaker != "" {
		fmt.Printf("[%s]\n", node.Speaker)
	}
	if node.Background != "" {
		fmt.Printf("(scene: %s)\n", node.Background)
	}
	for _, cue := range node.AudioCues {
		fmt.Printf("(audio %s: %s)\n", cue.Channel, cue.URI)
	}
}

// revealContent prints the node text at the typed-text pace. Visible grows by
// appending, so printing the byte suffix is safe.
func revealContent(controller *playback.Controller, interval time.Duration) {
	printed := 0
	for {
		controller.Tick(time.Now())
		visible := controller.Sequencer().Visible()
		fmt.Print(visible[printed:])
		printed = len(visible)
		if controller.Sequencer().Phase() == playback.Revealed {
			fmt.Println()
			return
		}
		time.Sleep(interval)
	}
}

func printLogs(sink *sandbox.MemoryLog, seen int) int {
	entries := sink.Entries()
	for _, entry := range entries[seen:] {
		fmt.Printf("  %s: %s\n", entry.Level, entry.Text)
	}
	return len(entries)
}

// promptChoice reads a numbered selection and returns the chosen edge id.
// Entering q quits.
func promptChoice(input *bufio.Scanner, choices []models.Edge) (edgeID string, quit bool) {
	for i, edge := range choices {
		fmt.Printf("  %d) %s\n", i+1, edge.Label)
	}
	for {
		fmt.Print("> ")
		if !input.Scan() {
			return "", true
		}
		line := strings.TrimSpace(input.Text())
		if line == "q" || line == "quit" {
			return "", true
		}
		selected, err := strconv.Atoi(line)
		if err != nil || selected < 1 || selected > len(choices) {
			fmt.Println("pick a listed number")
			continue
		}
		return choices[selected-1].ID, false
	}
}
