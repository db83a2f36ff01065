package envstruct_test

import (
	"testing"

	"github.com/storyloom/storyloom/internal/envstruct"
	"github.com/stretchr/testify/require"
)

type config struct {
	EnvVar string `env:"ENV_VAR"`
}

type configWithDefault struct {
	EnvVar string `env:"ENV_VAR" envDefault:"fallback"`
}

type configUnsupported struct {
	EnvVar int `env:"ENV_VAR"`
}

func TestPopulate(t *testing.T) {
	tests := []struct {
		name      string
		v         any
		lookupEnv func(string) (string, bool)
		want      any
		wantErr   error
	}{
		{
			name:      "nil",
			v:         nil,
			lookupEnv: func(_ string) (string, bool) { return "", false },
			wantErr:   envstruct.ErrInvalidValue,
		},
		{
			name:      "not pointer",
			v:         struct{}{},
			lookupEnv: func(_ string) (string, bool) { return "", false },
			wantErr:   envstruct.ErrInvalidValue,
		},
		{
			name:      "empty struct",
			v:         &struct{}{},
			lookupEnv: func(_ string) (string, bool) { return "", false },
			want:      &struct{}{},
		},
		{
			name:      "empty env",
			v:         &config{},
			lookupEnv: func(_ string) (string, bool) { return "", false },
			wantErr:   envstruct.ErrEnvNotSet,
		},
		{
			name:      "env is set",
			v:         &config{},
			lookupEnv: func(_ string) (string, bool) { return "env_var", true },
			want:      &config{EnvVar: "env_var"},
		},
		{
			name:      "default fallback",
			v:         &configWithDefault{},
			lookupEnv: func(_ string) (string, bool) { return "", false },
			want:      &configWithDefault{EnvVar: "fallback"},
		},
		{
			name:      "unsupported field type",
			v:         &configUnsupported{},
			lookupEnv: func(_ string) (string, bool) { return "1", true },
			wantErr:   envstruct.ErrInvalidValue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := envstruct.Populate(tt.v, tt.lookupEnv)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, tt.v)
		})
	}
}
