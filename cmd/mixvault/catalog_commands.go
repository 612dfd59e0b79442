package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mixvault/internal/catalog"
	"mixvault/internal/config"
	"mixvault/internal/database"
)

type mixView struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	Verified    bool              `json:"verified"`
	VerifiedBy  string            `json:"verified_by,omitempty"`
	ExternalIDs map[string]string `json:"external_ids"`
	RawMixID    int64             `json:"raw_mix_id,omitempty"`
	DJs         []string          `json:"djs,omitempty"`
	Venue       string            `json:"venue,omitempty"`
	Contexts    []contextView     `json:"contexts,omitempty"`
	Tracks      []mixTrackView    `json:"tracks,omitempty"`
}

type contextView struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons,omitempty"`
}

type mixTrackView struct {
	Position  int      `json:"position"`
	StartTime *int     `json:"start_time,omitempty"`
	TrackID   int64    `json:"track_id"`
	Title     string   `json:"title"`
	Artists   []string `json:"artists,omitempty"`
	Verified  bool     `json:"verified"`
}

func newMixesCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "mixes",
		Short: "List the most recent canonical mixes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(func(_ *config.Config, db *database.DB) error {
				mixes, err := catalog.New(db).ListMixes(commandCtx(cmd), limit)
				if err != nil {
					return err
				}
				views := make([]mixView, 0, len(mixes))
				for _, m := range mixes {
					views = append(views, baseMixView(m))
				}
				if jsonOut {
					return writeJSON(cmd, views)
				}
				out := cmd.OutOrStdout()
				if len(views) == 0 {
					fmt.Fprintln(out, "No canonical mixes")
					return nil
				}
				rows := make([][]string, 0, len(views))
				for _, v := range views {
					rows = append(rows, []string{
						fmt.Sprint(v.ID),
						truncate(v.Title, 56),
						yesNo(v.Verified),
						formatExternalIDs(v.ExternalIDs),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Title", "Verified", "External IDs"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum mixes to list")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <mix-id>",
		Short: "Show a canonical mix with its tracklist, DJs, and contexts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid mix id %q", args[0])
			}
			return ctx.withDB(func(_ *config.Config, db *database.DB) error {
				view, err := loadMixView(commandCtx(cmd), catalog.New(db), id)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, view)
				}
				printMixView(cmd.OutOrStdout(), view)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func baseMixView(m *catalog.Mix) mixView {
	return mixView{
		ID:          m.ID,
		Title:       m.Title,
		Verified:    m.Verification.IsVerified,
		VerifiedBy:  m.Verification.VerifiedBy,
		ExternalIDs: m.ExternalIDs.Clone(),
		RawMixID:    m.RawMixID,
	}
}

func loadMixView(ctx context.Context, store *catalog.Store, id int64) (mixView, error) {
	mix, err := store.GetMix(ctx, id)
	if err != nil {
		return mixView{}, err
	}
	if mix == nil {
		return mixView{}, fmt.Errorf("mix %d not found", id)
	}
	view := baseMixView(mix)

	djIDs, err := store.MixArtistIDs(ctx, id, catalog.RoleDJ)
	if err != nil {
		return mixView{}, err
	}
	artistNames := map[int64]string{}
	artistName := func(artistID int64) (string, error) {
		if name, ok := artistNames[artistID]; ok {
			return name, nil
		}
		artist, err := store.GetArtist(ctx, artistID)
		if err != nil || artist == nil {
			return "", err
		}
		artistNames[artistID] = artist.Name
		return artist.Name, nil
	}
	for _, djID := range djIDs {
		name, err := artistName(djID)
		if err != nil {
			return mixView{}, err
		}
		if name != "" {
			view.DJs = append(view.DJs, name)
		}
	}

	if mix.VenueID > 0 {
		venue, err := store.GetVenue(ctx, mix.VenueID)
		if err != nil {
			return mixView{}, err
		}
		if venue != nil {
			view.Venue = venueLabel(venue)
		}
	}

	contexts, err := store.MixContexts(ctx, id)
	if err != nil {
		return mixView{}, err
	}
	for _, c := range contexts {
		view.Contexts = append(view.Contexts, contextView{
			Name:       c.Name,
			Type:       c.ContextType,
			Confidence: c.Confidence,
			Reasons:    c.ReasonCodes,
		})
	}

	links, err := store.MixTracks(ctx, id)
	if err != nil {
		return mixView{}, err
	}
	for _, link := range links {
		track, err := store.GetTrack(ctx, link.TrackID)
		if err != nil {
			return mixView{}, err
		}
		entry := mixTrackView{Position: link.Position, StartTime: link.StartTime, TrackID: link.TrackID}
		if track != nil {
			entry.Title = track.Title
			entry.Verified = track.Verification.IsVerified
		}
		credits, err := store.TrackArtists(ctx, link.TrackID)
		if err != nil {
			return mixView{}, err
		}
		for _, credit := range credits {
			name, err := artistName(credit.ArtistID)
			if err != nil {
				return mixView{}, err
			}
			if name == "" {
				continue
			}
			if credit.Role == catalog.RoleFeatured {
				name += " (feat.)"
			}
			entry.Artists = append(entry.Artists, name)
		}
		view.Tracks = append(view.Tracks, entry)
	}
	return view, nil
}

func printMixView(out io.Writer, v mixView) {
	fmt.Fprintf(out, "Mix %d: %s\n", v.ID, v.Title)
	fmt.Fprintf(out, "Verified: %s", yesNo(v.Verified))
	if v.VerifiedBy != "" {
		fmt.Fprintf(out, " (by %s)", v.VerifiedBy)
	}
	fmt.Fprintln(out)
	if len(v.ExternalIDs) > 0 {
		fmt.Fprintf(out, "External IDs: %s\n", formatExternalIDs(v.ExternalIDs))
	}
	if len(v.DJs) > 0 {
		fmt.Fprintf(out, "DJs: %s\n", strings.Join(v.DJs, ", "))
	}
	if v.Venue != "" {
		fmt.Fprintf(out, "Venue: %s\n", v.Venue)
	}
	for _, c := range v.Contexts {
		fmt.Fprintf(out, "Context: %s [%s] %.2f\n", c.Name, c.Type, c.Confidence)
	}
	if len(v.Tracks) == 0 {
		fmt.Fprintln(out, "No tracks")
		return
	}
	rows := make([][]string, 0, len(v.Tracks))
	for _, t := range v.Tracks {
		start := ""
		if t.StartTime != nil {
			start = formatClock(*t.StartTime)
		}
		rows = append(rows, []string{
			fmt.Sprint(t.Position),
			start,
			strings.Join(t.Artists, ", "),
			t.Title,
			yesNo(t.Verified),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Start", "Artists", "Title", "Verified"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft},
	))
}

func venueLabel(v *catalog.Venue) string {
	parts := []string{v.Name}
	for _, part := range []string{v.City, v.Country} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

func formatExternalIDs(ids map[string]string) string {
	if len(ids) == 0 {
		return ""
	}
	providers := catalog.ExternalIDs(ids).Providers()
	values := make([]string, 0, len(providers))
	for _, p := range providers {
		values = append(values, ids[p])
	}
	return strings.Join(values, " ")
}

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var runID string
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent ingestion log events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(func(_ *config.Config, db *database.DB) error {
				events, err := catalog.New(db).RecentEvents(commandCtx(cmd), strings.TrimSpace(runID), limit)
				if err != nil {
					return err
				}
				if jsonOut {
					type eventView struct {
						Time     string `json:"time"`
						RunID    string `json:"run_id,omitempty"`
						RawMixID int64  `json:"raw_mix_id,omitempty"`
						Level    string `json:"level"`
						Event    string `json:"event"`
						Message  string `json:"message,omitempty"`
					}
					views := make([]eventView, 0, len(events))
					for _, e := range events {
						views = append(views, eventView{
							Time:     database.FormatTime(e.Time),
							RunID:    e.RunID,
							RawMixID: e.RawMixID,
							Level:    e.Level,
							Event:    e.Event,
							Message:  e.Message,
						})
					}
					return writeJSON(cmd, views)
				}
				out := cmd.OutOrStdout()
				if len(events) == 0 {
					fmt.Fprintln(out, "No events")
					return nil
				}
				rows := make([][]string, 0, len(events))
				for _, e := range events {
					rawID := ""
					if e.RawMixID > 0 {
						rawID = fmt.Sprint(e.RawMixID)
					}
					rows = append(rows, []string{
						e.Time.Local().Format("2006-01-02 15:04:05"),
						strings.ToUpper(e.Level),
						e.Event,
						rawID,
						truncate(firstLine(e.Message), 60),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Time", "Level", "Event", "Raw Mix", "Message"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Only show events from this run id")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum events to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
