package cli

import (
	"cmp"
	"fmt"
	"io"
	"strings"

	"github.com/nickysemenza/gola"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"

	"github.com/nansu0425/RandomPitchPlayer/config"
	"github.com/nansu0425/RandomPitchPlayer/profile"
)

// NewDMXCommand creates the dmx command.
func NewDMXCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dmx",
		Short: "Dump the DMX values OLA holds for the patched fixtures",
		Long: `Read the patched universes back from OLA and print each fixture's
channels. Useful to check the light mirror while a session runs.

Example:
  pitchplayer dmx --ola localhost:9010`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dumpDMX(cmd, rootOpts)
		},
	}

	return cmd
}

func dumpDMX(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	client, err := gola.New(cfg.DMX.OLAAddress)
	if err != nil {
		return WrapExitError(ExitCommandError, "could not connect to OLA", err)
	}
	defer client.Close()

	read := func(universe int) ([]byte, error) {
		x, err := client.GetDmx(universe)
		if err != nil {
			return nil, err
		}
		return x.Data, nil
	}

	return writeDMXDump(cmd.OutOrStdout(), cfg.DMX.Fixtures, cfg.FixtureProfiles, read)
}

// writeDMXDump prints one line per fixture. Each universe is read once.
func writeDMXDump(w io.Writer, patch []config.PatchedFixture, profiles map[string]profile.Profile, read func(universe int) ([]byte, error)) error {
	universes := map[int][]byte{}

	for _, pf := range patch {
		data, ok := universes[pf.Universe]
		if !ok {
			var err error
			data, err = read(pf.Universe)
			if err != nil {
				return WrapExitError(ExitFailure, fmt.Sprintf("GetDmx: %d", pf.Universe), err)
			}
			universes[pf.Universe] = data
		}

		p := profiles[pf.Profile]
		types := make([]string, 0, len(p.Channels))
		for channelType := range p.Channels {
			types = append(types, channelType)
		}
		slices.SortFunc(types, func(a, b string) int { return cmp.Compare(p.Channels[a], p.Channels[b]) })

		values := make([]string, 0, len(types))
		for _, channelType := range types {
			channel := pf.Address + p.Channels[channelType] - 1
			v := 0
			if channel >= 1 && channel <= len(data) {
				v = int(data[channel-1])
			}
			values = append(values, fmt.Sprintf("%s=%d", strings.TrimPrefix(channelType, "channel:type:"), v))
		}

		fmt.Fprintf(w, "%s (universe %d @%d, %s): %s\n", pf.Name, pf.Universe, pf.Address, p.Name, strings.Join(values, " "))
	}

	return nil
}
