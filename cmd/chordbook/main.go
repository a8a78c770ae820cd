// Command chordbook parses, stores, transposes and prints songs from the
// command line.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/sukalov/chordbook/internal/utils"
)

// CLI defines the command-line interface for chordbook.
var CLI struct {
	Globals

	New    NewCmd      `cmd:"" help:"Create a song from a pasted lyrics-and-chords text"`
	Edit   EditCmd     `cmd:"" help:"Replace a song with edited lyrics and chords texts"`
	Show   ShowCmd     `cmd:"" help:"Print a song"`
	Key    KeyCmd      `cmd:"" help:"Print the key a song sounds in"`
	List   ListCmd     `cmd:"" help:"List songs"`
	Tags   TagsCmd     `cmd:"" help:"List every tag"`
	Delete DeleteCmd   `cmd:"" help:"Delete a song"`
	Import ImportGroup `cmd:"" help:"Import songs from other sources"`
	Export ExportCmd   `cmd:"" help:"Write the whole songbook to a songs.json file"`
}

// Globals are the flags shared by every command.
type Globals struct {
	Store     string `help:"Song store: songs.json, songs.json.xz, a SQLite file or a libsql:// URL" env:"CHORDBOOK_STORE" default:"songs.json"`
	AuthToken string `name:"auth-token" help:"Auth token for remote libsql stores" env:"TURSO_AUTH_TOKEN"`
	Debug     bool   `help:"Print debug log lines"`
}

// ImportGroup contains the importers.
type ImportGroup struct {
	Amdm       ImportAmdmCmd       `cmd:"" help:"Import a song page from amdm.ru"`
	Opensong   ImportOpenSongCmd   `cmd:"" name:"opensong" help:"Import OpenSong XML files"`
	Collection ImportCollectionCmd `cmd:"" help:"Import every song of a songs.json file, keeping ids"`
}

func main() {
	_, _ = utils.LoadEnv(nil)

	kctx := kong.Parse(&CLI,
		kong.Name("chordbook"),
		kong.Description("Songbook of lyrics and chords with transposition"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, CLI.Globals, os.Stdout)
	kctx.FatalIfErrorf(err)
	defer a.Close()

	err = kctx.Run(a)
	kctx.FatalIfErrorf(err)
}
