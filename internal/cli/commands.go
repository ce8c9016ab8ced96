package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/dbfiles/internal/server/auth"
)

// withStore opens the configured store, runs fn and closes the store.
func (a *App) withStore(cmd *cobra.Command, fn func(FileStore) error) error {
	s, err := a.openStore(cmd)
	if err != nil {
		return err
	}
	return errors.Join(fn(s), s.Close())
}

func (a *App) withLocal(cmd *cobra.Command, fn func(*localStore) error) error {
	s, err := a.openLocal(cmd)
	if err != nil {
		return err
	}
	return errors.Join(fn(s), s.Close())
}

func (a *App) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply record store migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLocal(cmd, func(*localStore) error {
				fmt.Fprintln(cmd.OutOrStdout(), "record store is up to date")
				return nil
			})
		},
	}
}

func (a *App) putCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put NAME [FILE]",
		Short: "Store FILE (or stdin) under NAME",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				content []byte
				err     error
			)
			if len(args) == 2 && args[1] != "-" {
				content, err = os.ReadFile(args[1])
			} else {
				content, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			return a.withStore(cmd, func(s FileStore) error {
				name, err := s.Save(cmd.Context(), args[0], content)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
				return nil
			})
		},
	}
}

func (a *App) getCmd() *cobra.Command {
	var (
		output string
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Write the content stored under NAME to stdout or a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if output == "" && !force && a.isTerminal(out) {
				return errors.New("refusing to write file content to a terminal; use -o FILE or --force")
			}

			return a.withStore(cmd, func(s FileStore) error {
				content, err := s.Open(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if output != "" {
					return os.WriteFile(output, content, 0o644)
				}
				_, err = out.Write(content)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to FILE instead of stdout")
	cmd.Flags().BoolVar(&force, "force", false, "write to stdout even if it is a terminal")
	return cmd
}

func (a *App) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm NAME",
		Short: "Delete NAME from the record store and the mirror",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s FileStore) error {
				return s.Delete(cmd.Context(), args[0])
			})
		},
	}
}

func (a *App) statCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat NAME",
		Short: "Show size and URL of NAME",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s FileStore) error {
				size, err := s.Size(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				url, err := s.URL(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintf(w, "name:\t%s\n", args[0])
				fmt.Fprintf(w, "size:\t%d\n", size)
				fmt.Fprintf(w, "url:\t%s\n", url)
				return w.Flush()
			})
		},
	}
}

func (a *App) existsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exists NAME",
		Short: "Print whether NAME is stored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s FileStore) error {
				ok, err := s.Exists(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ok)
				return nil
			})
		},
	}
}

func (a *App) urlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url NAME",
		Short: "Print the public URL of NAME",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s FileStore) error {
				url, err := s.URL(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), url)
				return nil
			})
		},
	}
}

func (a *App) lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [PREFIX]",
		Short: "List stored names, optionally under PREFIX",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			return a.withLocal(cmd, func(s *localStore) error {
				infos, err := s.List(cmd.Context(), prefix)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, fi := range infos {
					fmt.Fprintf(w, "%d\t%s\t%s\n", fi.Size, fi.UpdatedAt.UTC().Format(time.RFC3339), fi.Name)
				}
				return w.Flush()
			})
		},
	}
}

func (a *App) dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Write every record missing or stale in the mirror",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLocal(cmd, func(s *localStore) error {
				n, err := s.Dump(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "dumped %d file(s)\n", n)
				return nil
			})
		},
	}
}

func (a *App) loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Import mirrored files missing from the record store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLocal(cmd, func(s *localStore) error {
				n, err := s.Load(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "loaded %d file(s)\n", n)
				return nil
			})
		},
	}
}

func (a *App) tokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for Save and Delete",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.AccessTokenValidityDuration
			}
			token, err := auth.GenerateToken(subject, []byte(cfg.SecretKey), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token validity (default from config)")
	return cmd
}
