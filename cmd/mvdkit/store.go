package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"

	"github.com/c360studio/mvdkit/storage"
)

const storeTimeout = 10 * time.Second

// openStore connects to the configured NATS server and opens the document
// bucket. The returned close func drains the connection.
func (a *app) openStore(ctx context.Context, url string) (*storage.Store, func(), error) {
	if url == "" {
		url = a.cfg.Store.URL
	}
	conn, err := nats.Connect(url, nats.Name(appName))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("create JetStream context: %w", err)
	}
	store, err := storage.NewStore(ctx, js, a.cfg.Store.Bucket, a.logger, a.codecOptions()...)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("initialize storage: %w", err)
	}
	return store, func() { _ = conn.Drain() }, nil
}

func pushCmd(a *app) *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "push <file>",
		Short: "Store a document in the NATS key-value bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), storeTimeout)
			defer cancel()
			store, done, err := a.openStore(ctx, url)
			if err != nil {
				return err
			}
			defer done()

			id, rev, err := store.PutRaw(ctx, data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s revision %d\n", id, rev)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "NATS server URL (overrides config)")
	return cmd
}

func pullCmd(a *app) *cobra.Command {
	var (
		url    string
		output string
	)

	cmd := &cobra.Command{
		Use:   "pull <uuid>",
		Short: "Fetch a document from the NATS key-value bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid document UUID: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), storeTimeout)
			defer cancel()
			store, done, err := a.openStore(ctx, url)
			if err != nil {
				return err
			}
			defer done()

			data, rev, err := store.Raw(ctx, id)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("write document: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s revision %d\n", output, rev)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "NATS server URL (overrides config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func listCmd(a *app) *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents in the NATS key-value bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), storeTimeout)
			defer cancel()
			store, done, err := a.openStore(ctx, url)
			if err != nil {
				return err
			}
			defer done()

			ids, err := store.List(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, id := range ids {
				doc, err := store.Load(ctx, id)
				if err != nil {
					fmt.Fprintf(out, "%s\t(%v)\n", id, err)
					continue
				}
				fmt.Fprintf(out, "%s\t%s\trev %d\t%s\n", id, doc.Project.Name, doc.Revision, doc.Created.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "NATS server URL (overrides config)")
	return cmd
}
