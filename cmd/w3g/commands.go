package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"

	"github.com/condor/w3g-decoder/internal/config"
	"github.com/condor/w3g-decoder/pkg/w3g"
)

func newParseCmd(conf *config.Config) *cobra.Command {
	var compact bool

	cmd := &cobra.Command{
		Use:   "parse <replay.w3g>",
		Short: "Decode a replay and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			diag := w3g.NewLogDiagnostics(log.Logger.With().Str("file", filepath.Base(args[0])).Logger())
			replay, err := newParser(conf, diag).Parse(args[0])
			if err != nil {
				log.Error().Err(err).Str("file", args[0]).Msg("decode failed")
				return err
			}
			diag.Summary()

			if !conf.Output.Actions {
				replay.Actions = nil
			}
			out, err := replay.ToJSON(conf.Output.Pretty && !compact)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().BoolVar(&compact, "compact", false, "print JSON on one line")
	return cmd
}

func newInfoCmd(conf *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "info <replay.w3g>",
		Short: "Print a readable summary of a replay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			diag := w3g.NewLogDiagnostics(log.Logger)
			replay, err := newParser(conf, diag).Parse(args[0])
			if err != nil {
				log.Error().Err(err).Str("file", args[0]).Msg("decode failed")
				return err
			}
			diag.Summary()
			printInfo(cmd, replay, diag.Counters)
			return nil
		},
	}
}

func printInfo(cmd *cobra.Command, r *w3g.Replay, counters *w3g.Counters) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Game:     %s\n", r.Metadata.GameName)
	fmt.Fprintf(w, "Map:      %s\n", r.Metadata.MapName)
	fmt.Fprintf(w, "Creator:  %s\n", r.Metadata.GameCreatorBattleTag)
	if r.Header != nil {
		fmt.Fprintf(w, "Version:  %s\n", r.Header.VersionString())
		fmt.Fprintf(w, "Duration: %s\n", w3g.FormatDuration(uint64(r.Header.DurationMs)))
	}
	fmt.Fprintf(w, "Speed:    %s\n", r.GameSettings.SpeedName())

	saver := "?"
	if p := r.GetPlayer(r.Metadata.SavingPlayerID); p != nil {
		saver = p.BattleTag
	}
	fmt.Fprintf(w, "Saved by: %s (last leaver)\n", saver)
	if id, ok := r.RecordingPlayerCandidate(); ok {
		fmt.Fprintf(w, "Recorder: %s (by leave reason)\n", r.Players[id].BattleTag)
	}

	fmt.Fprintln(w, "\nPlayers:")
	counts := r.PlayerActionCounts()
	for _, id := range r.PlayerIDs() {
		p := r.Players[id]
		fmt.Fprintf(w, "  [%2d] %-24s actions=%-6d apm=%-6.1f left=%s %s\n",
			id, p.BattleTag, counts[id], r.APM(id), w3g.FormatDuration(p.LeftAt), p.LeaveReason)
	}

	fmt.Fprintln(w, "\nSlots:")
	for i, s := range r.Slots {
		if s.Status != w3g.SlotOccupied {
			continue
		}
		fmt.Fprintf(w, "  %2d player=%-3d team=%d color=%-10s race=%-8s handicap=%d%%\n",
			i, s.PlayerID, s.TeamIndex, s.Color, s.Race, s.HandicapPercent)
	}

	if len(r.Chat) > 0 {
		fmt.Fprintln(w, "\nChat:")
		for _, m := range r.Chat {
			name := fmt.Sprintf("#%d", m.SenderPlayerID)
			if p := r.GetPlayer(m.SenderPlayerID); p != nil {
				name = p.BattleTag
			}
			fmt.Fprintf(w, "  [%s] %s: %s\n", w3g.FormatDuration(m.Timestamp), name, m.Message)
		}
	}

	items := map[string]int{}
	for _, a := range r.Actions {
		if a.Data != nil && a.Data.ItemID != nil {
			items[w3g.ItemName(*a.Data.ItemID)]++
		}
	}
	if len(items) > 0 {
		fmt.Fprintln(w, "\nOrders:")
		names := maps.Keys(items)
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %-28s %d\n", name, items[name])
		}
	}

	if len(counters.UnknownActions) > 0 {
		fmt.Fprintln(w, "\nUnknown action ids:")
		for _, tc := range w3g.Sorted(counters.UnknownActions) {
			fmt.Fprintf(w, "  0x%02X %d\n", tc.Tag, tc.Count)
		}
	}
}

func newHeaderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "header <replay.w3g>",
		Short: "Print only the file header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := w3g.ParseHeaderOnly(args[0])
			if err != nil {
				log.Error().Err(err).Str("file", args[0]).Msg("header decode failed")
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Magic:       %v\n", h.HasMagic())
			fmt.Fprintf(w, "Header:      v%d, %d bytes\n", h.HeaderVersion, h.HeaderSize)
			fmt.Fprintf(w, "Game:        %s (expansion=%v, reforged=%v)\n", h.GameIdentifier, h.IsExpansion(), h.IsReforged())
			fmt.Fprintf(w, "Version:     %s\n", h.VersionString())
			fmt.Fprintf(w, "Multiplayer: %v\n", h.IsMultiplayer())
			fmt.Fprintf(w, "Duration:    %s\n", w3g.FormatDuration(uint64(h.DurationMs)))
			fmt.Fprintf(w, "Blocks:      %d (%d compressed / %d decompressed bytes)\n",
				h.NumCompressedBlocks, h.CompressedSize, h.DecompressedSize)
			return nil
		},
	}
}
