// Package store writes finished self-play games to Parquet.
//
// Files are written under outDir/tmp and renamed into outDir once complete,
// so readers never observe a partial file. The archive is a record of
// finished games only; nothing reads it back to resume play.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

const (
	TurnSchema = "turn_row_v1"
	GameSchema = "game_row_v1"
)

// TurnRow is one decision of one game.
//
// Boards holds every board of the session before the move, row-major, 16
// cells per board. Move is the direction index (0=Up, 1=Down, 2=Right,
// 3=Left). Estimates are the searcher's values in the same order; a
// direction that changed nothing is -Inf.
type TurnRow struct {
	GameID     string    `parquet:"game_id,dict"`
	Turn       int32     `parquet:"turn"`
	NumBoards  int32     `parquet:"num_boards"`
	Boards     []int32   `parquet:"boards"`
	Move       int32     `parquet:"move"`
	Estimates  []float64 `parquet:"estimates"`
	ScoreDelta int32     `parquet:"score_delta"`
	Score      int64     `parquet:"score"`
	// FinalScore is filled in once the game has ended.
	FinalScore int64  `parquet:"final_score"`
	Algorithm  string `parquet:"algorithm,dict"`
}

// GameRow summarises one finished game.
type GameRow struct {
	GameID      string  `parquet:"game_id,dict"`
	Seed        uint64  `parquet:"seed"`
	NumBoards   int32   `parquet:"num_boards"`
	EndPolicy   string  `parquet:"end_policy,dict"`
	Algorithm   string  `parquet:"algorithm,dict"`
	Simulations int32   `parquet:"simulations"`
	Exploration float64 `parquet:"exploration"`
	Turns       int32   `parquet:"turns"`
	Score       int64   `parquet:"score"`
	MaxTile     int32   `parquet:"max_tile"`
	FinalBoards []int32 `parquet:"final_boards"`
	DurationMs  int64   `parquet:"duration_ms"`
}

func writeOptions(schema string) []parquet.WriterOption {
	return []parquet.WriterOption{
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", schema),
	}
}

// WriteParquetAtomic writes rows to outDir/<prefix>_<ns>.parquet through
// outDir/tmp and returns the final path.
func WriteParquetAtomic[T any](outDir, prefix, schema string, rows []T) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("%s_%d.parquet", prefix, time.Now().UnixNano())
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows, writeOptions(schema)...); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return finalPath, nil
}

// WriteGamesParquet writes game summaries as one batch file.
func WriteGamesParquet(outDir string, rows []GameRow) (string, error) {
	return WriteParquetAtomic(outDir, "games", GameSchema, rows)
}

// ReadTurns loads a turn file.
func ReadTurns(path string) ([]TurnRow, error) {
	rows, err := parquet.ReadFile[TurnRow](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// ReadGames loads a game summary file.
func ReadGames(path string) ([]GameRow, error) {
	rows, err := parquet.ReadFile[GameRow](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}
