package main

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/brensch/mcts2048/stats"
	"github.com/brensch/mcts2048/store"
)

// writerResult is what the writer loop leaves behind once its input closes.
type writerResult struct {
	files []string
	tally stats.GameTally
}

// parquetWriterLoop streams turn rows into batch files of gamesPerFlush games,
// records every published file in the manifest, and writes one game summary
// file when the input closes. Every game is tallied even if its rows could
// not be written.
func parquetWriterLoop(ctx context.Context, outDir string, gamesPerFlush int, in <-chan gameWriteRequest) writerResult {
	logger := zerolog.Ctx(ctx)
	if gamesPerFlush <= 0 {
		gamesPerFlush = 16
	}

	var res writerResult
	manifest, err := store.OpenManifest(filepath.Join(outDir, "manifest.tsv"))
	if err != nil {
		logger.Error().Err(err).Msg("manifest unavailable, files will not be indexed")
	}
	defer func() {
		if manifest != nil {
			_ = manifest.Close()
		}
	}()

	var (
		bw      *store.BatchWriter[store.TurnRow]
		pending []string
		games   []store.GameRow
	)

	flush := func() {
		if bw == nil {
			return
		}
		outPath, rows, n, err := bw.Finalize()
		bw = nil
		ids := pending
		pending = nil
		if err != nil {
			logger.Error().Err(err).Int("games", n).Int("rows", rows).Msg("parquet flush failed")
			return
		}
		if outPath == "" {
			return
		}
		res.files = append(res.files, outPath)
		logger.Info().Str("path", outPath).Int("games", n).Int("rows", rows).Msg("parquet flush ok")
		if manifest != nil {
			if err := manifest.Add(filepath.Base(outPath), ids...); err != nil {
				logger.Warn().Err(err).Msg("manifest append failed")
			}
		}
	}

	for req := range in {
		res.tally.Add(int(req.game.Score), int(req.game.Turns), int(req.game.MaxTile))
		games = append(games, req.game)

		if bw == nil {
			bw, err = store.NewBatchWriter[store.TurnRow](outDir, "turns", store.TurnSchema)
			if err != nil {
				logger.Error().Err(err).Str("game", req.game.GameID).Msg("open batch writer")
				continue
			}
		}
		if err := bw.WriteGame(req.rows); err != nil {
			logger.Error().Err(err).Str("game", req.game.GameID).Msg("write game rows")
			continue
		}
		pending = append(pending, req.game.GameID)
		if bw.BufferedGames() >= gamesPerFlush {
			flush()
		}
	}
	flush()

	if len(games) > 0 {
		outPath, err := store.WriteGamesParquet(outDir, games)
		if err != nil {
			logger.Error().Err(err).Int("games", len(games)).Msg("game summary write failed")
		} else {
			res.files = append(res.files, outPath)
			logger.Info().Str("path", outPath).Int("games", len(games)).Msg("game summary written")
		}
	}
	return res
}
