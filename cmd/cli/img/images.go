package img

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/storyloom/storyloom/internal/ai"
)

var Group = &cobra.Group{
	ID:    "img",
	Title: "Image operations",
}

func init() {
	Generate.Flags().String("out", "./out.png", "path to generated image file")
	Generate.Flags().Int("width", 1024, "requested image width")
	Generate.Flags().Int("height", 1024, "requested image height")
}

var Generate = &cobra.Command{
	Use:     "gen [prompt]",
	GroupID: "img",
	Short:   "Generate image",
	Long:    `Generates a story asset image with Dall-E`,
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}))
		client := ai.NewClient(os.Getenv("OPENAI_API_KEY"), logger)

		width, _ := cmd.Flags().GetInt("width")
		height, _ := cmd.Flags().GetInt("height")

		result, err := client.GenerateImage(context.Background(), ai.ImageRequest{
			Prompt: strings.Join(args, " "),
			Width:  width,
			Height: height,
		}, func(message string) {
			fmt.Println(message)
		})
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Image creation error: %v\n", err)
			return
		}

		imgBytes, err := base64.StdEncoding.DecodeString(result.B64JSON)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Base64 decode error: %v\n", err)
			return
		}

		imgData, err := png.Decode(bytes.NewReader(imgBytes))
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "PNG decode error: %v\n", err)
			return
		}

		outPath, err := cmd.Flags().GetString("out")
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "invalid out flag: %v\n", err)
			return
		}
		file, err := os.Create(outPath)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "File creation error: %v\n", err)
			return
		}
		defer func(file *os.File) {
			_ = file.Close()
		}(file)

		if err := png.Encode(file, imgData); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "PNG encode error: %v\n", err)
			return
		}

		fmt.Printf("The image was saved as %s\n", outPath)
	},
}
