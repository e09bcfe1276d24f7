package config

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

type LogFormat int

const (
	LogFormatConsole LogFormat = iota
	LogFormatJSON
)

func (f *LogFormat) UnmarshalText(text []byte) error {
	switch string(text) {
	case "console":
		*f = LogFormatConsole
	case "json":
		*f = LogFormatJSON
	default:
		return fmt.Errorf("unknown log format: %s", string(text))
	}
	return nil
}

func (f LogFormat) MarshalText() ([]byte, error) {
	switch f {
	case LogFormatConsole:
		return []byte("console"), nil
	case LogFormatJSON:
		return []byte("json"), nil
	default:
		return nil, fmt.Errorf("unknown log format: %v", f)
	}
}

type Log struct {
	Level  string
	Format LogFormat
}

// ZerologLevel parses Level, falling back to info.
func (l Log) ZerologLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(l.Level)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

type Decode struct {
	Strict  bool
	Workers int
}

type Output struct {
	Pretty  bool
	Actions bool
}

type Config struct {
	Log    Log
	Decode Decode
	Output Output
}

func Default() Config {
	return Config{
		Log: Log{
			Level:  "info",
			Format: LogFormatConsole,
		},
		Decode: Decode{
			Strict:  false,
			Workers: 1,
		},
		Output: Output{
			Pretty:  true,
			Actions: true,
		},
	}
}

func Save(config Config, w io.Writer) error {
	return toml.NewEncoder(w).Encode(config)
}

func Load(r io.Reader) (Config, error) {
	c := Default()

	if _, err := toml.NewDecoder(r).Decode(&c); err != nil {
		return c, err
	}

	return c, nil
}
