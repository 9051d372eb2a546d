package pkg

import (
	"encoding/json"
	"fmt"

	"github.com/notnil/chess"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// GameFromFEN restores a game from a full FEN record.
func GameFromFEN(gamefen string) (*chess.Game, error) {
	fen, err := chess.FEN(gamefen)
	if err != nil {
		return nil, fmt.Errorf("game from fen %q: %w", gamefen, err)
	}
	return chess.NewGame(fen, chess.UseNotation(chess.UCINotation{})), nil
}

// InitLog builds a console logger appending to dest. The terminal belongs to the UI, so nothing
// is written to stderr.
func InitLog(dest, name string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{dest}
	cfg.ErrorOutputPaths = []string{dest}
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("opening log %s: %w", dest, err)
	}
	return logger.Named(name), nil
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// Encode marshals a message that is known to be serialisable.
func Encode(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("encode %T: %v", v, err))
	}
	return data
}

func Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
