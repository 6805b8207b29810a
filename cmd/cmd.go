// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// downloadFlags returns a fresh flag set for the download subcommands.
// Each subcommand gets its own copy so parsed values never bleed
// between them.
func downloadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "dir",
			Usage: "Override the configured download directory",
		},
		&cli.StringFlag{
			Name:  "manifest",
			Usage: "Write a session manifest JSON to this path",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output the session summary as JSON",
		},
		&cli.BoolFlag{
			Name:  "plain",
			Usage: "Suppress per-track progress lines",
		},
		&cli.BoolFlag{
			Name:  "ui",
			Usage: "Watch the download in the interactive monitor",
		},
	}
}

// downloadCommand queues collection downloads and follows them to completion
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "download",
		Aliases: []string{"dl"},
		Usage:   "Download a collection for offline playback",
		Commands: []*cli.Command{
			{
				Name:  "playlist",
				Usage: "Download every track in a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags:  downloadFlags(),
				Action: r.DownloadPlaylist,
			},
			{
				Name:  "album",
				Usage: "Download every track in an album",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags:  downloadFlags(),
				Action: r.DownloadAlbum,
			},
			{
				Name:   "liked",
				Usage:  "Download your liked songs",
				Flags:  downloadFlags(),
				Action: r.DownloadLiked,
			},
		},
	}
}

// jobsCommand inspects download jobs on a running daemon
func jobsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "jobs",
		Usage: "Inspect download jobs on a running daemon",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List download jobs",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.JobsList,
			},
			{
				Name:  "get",
				Usage: "Show one download job",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.JobsGet,
			},
			{
				Name:  "cancel",
				Usage: "Cancel a queued or running download job",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.JobsCancel,
			},
			{
				Name:  "follow",
				Usage: "Stream job updates from the daemon (optionally for one job)",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.JobsFollow,
			},
		},
	}
}

// serveCommand runs the scheduler daemon with its HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the download scheduler with its HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides [server] config)",
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Override the configured download directory",
			},
		},
		Action: r.Serve,
	}
}

// libraryCommand inspects the offline library index
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Inspect downloaded tracks",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List downloaded tracks",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.LibraryList,
			},
			{
				Name:  "export",
				Usage: "Export the offline library to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, markdown, or json)",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.LibraryExport,
			},
		},
	}
}

// setupCommand handles setup operations for configuration, the database, and account linking.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write an example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "familliar.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "familliar.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "link",
				Usage: "Link the library proxy to your account using OAuth2",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "familliar.toml",
					},
				},
				Action: r.SetupLink,
			},
			{
				Name:   "status",
				Usage:  "Check proxy health and link state (calls /health)",
				Action: r.SetupStatus,
			},
		},
	}
}

// apiCommand handles direct (proxy) API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the library proxy",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the proxy, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
						Value: true,
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to a .sh file with a browser cURL command to replay its headers",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to a .sh file with a browser cURL command to replay its headers",
					},
				},
				Action: r.APIPost,
			},
			{
				Name:  "dump",
				Usage: "Full proxy state dump (health, playlists, liked songs)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Save dump to api_dump.json",
						Value: false,
					},
				},
				Action: r.APIDump,
			},
		},
	}
}
