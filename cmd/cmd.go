// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "log",
			Usage: "Write an INFO level log to this file",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Log debug messages",
		},
	}
}

func sourceArg() []cli.Argument {
	return []cli.Argument{
		&cli.StringArg{
			Name:      "file",
			UsageText: "source document, stdin when omitted",
		},
	}
}

// playlistsCommand lists playlists and reconciles them against a source document.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "List playlists, or add, delete and replace their tracks from a source document",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "name",
				Usage: "Only list the playlist with this name (case insensitive)",
			},
			&cli.StringFlag{
				Name:  "type",
				Usage: "Playlists to list: owner, subscriber or all",
				Value: "owner",
			},
			&cli.BoolFlag{
				Name:  "sort",
				Usage: "Order tracks by artist then album",
			},
			&cli.BoolFlag{
				Name:  "performers",
				Usage: "List performer credits under each track",
			},
			&cli.BoolFlag{
				Name:  "no-tracks",
				Usage: "Print playlist headers only",
			},
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Print the JSON returned by the catalog",
			},
		},
		Action: r.Playlists,
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add the tracks of a source document, creating missing playlists",
				Arguments: sourceArg(),
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "replace",
						Usage: "Make existing playlists hold exactly the listed tracks",
					},
				},
				Action: r.PlaylistsAdd,
			},
			{
				Name:      "del",
				Aliases:   []string{"delete"},
				Usage:     "Remove the tracks of a source document",
				Arguments: sourceArg(),
				Action:    r.PlaylistsDel,
			},
			{
				Name:      "replace",
				Usage:     "Make every listed playlist hold exactly its tracks",
				Arguments: sourceArg(),
				Action:    r.PlaylistsReplace,
			},
			{
				Name:  "drop",
				Usage: "Delete an owned playlist by name",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Action: r.PlaylistsDrop,
			},
		},
	}
}

// favoritesCommand lists favorites and reconciles them against a source document.
func favoritesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "List favorites, or add and delete them from a source document",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "type",
				Usage: "Favorites to list: tracks, albums, artists or all",
				Value: "all",
			},
			&cli.BoolFlag{
				Name:  "cover",
				Usage: "Download album covers to covers.dir",
			},
			&cli.BoolFlag{
				Name:  "performers",
				Usage: "List performer credits under each track",
			},
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Print the JSON returned by the catalog",
			},
		},
		Action: r.Favorites,
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add the artists, albums and tracks of a source document",
				Arguments: sourceArg(),
				Action:    r.FavoritesAdd,
			},
			{
				Name:      "del",
				Aliases:   []string{"delete"},
				Usage:     "Remove the artists, albums and tracks of a source document",
				Arguments: sourceArg(),
				Action:    r.FavoritesDel,
			},
		},
	}
}

// setupCommand handles setup operations for the configuration file and run history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a configuration template to the --config path",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the run history database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the latest migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// historyCommand lists recorded runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded reconciliation runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to list",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Only list playlists or favorites runs",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output JSON",
			},
		},
		Action: r.History,
	}
}

// tuiCommand returns the top-level TUI command for interactive playlist management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse playlists and their tracks interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "type",
				Usage: "Playlists to show: owner, subscriber or all",
				Value: "owner",
			},
		},
		Action: r.TUI,
	}
}
