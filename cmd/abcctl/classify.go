package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abctag/abc-server/internal/classifier"
	"github.com/abctag/abc-server/internal/scores"
)

func newClassifyCmd(flags *globalFlags) *cobra.Command {
	var (
		in        classifier.Input
		mlURL     string
		transform string
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a single book",
		Long: `Submits one book to the genre model and prints the predicted label with
the score of every category. Unlike the server, failures are reported.`,
		Example: `  abcctl classify --title "Dune" --author "Frank Herbert" --description "Desert planet epic"
  abcctl classify --title "Dune" --transform log`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Title == "" {
				return errors.New("--title is required")
			}
			t, err := scores.ParseTransform(transform)
			if err != nil {
				return err
			}

			var extra []string
			if mlURL != "" {
				extra = append(extra, "-ml-url", mlURL)
			}
			cfg, log, err := flags.load(extra...)
			if err != nil {
				return err
			}
			labels, err := cfg.LabelSet()
			if err != nil {
				return err
			}

			client := classifier.New(cfg.ClassifierConfig(), labels, log.Logger)
			p, err := client.Predict(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("classify: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Label: %s\n", p.Label)

			pairs, aligned := scores.Labelled(labels.Labels(), scores.Apply(t, p.Scores))
			if !aligned {
				fmt.Fprintf(out, "warning: %d scores for %d labels\n", len(p.Scores), labels.Len())
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "CATEGORY\tSCORE (%s)\n", t)
			for _, ls := range pairs {
				fmt.Fprintf(w, "%s\t%.4f\n", ls.Label, ls.Score)
			}
			return w.Flush()
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "Book title")
	f.StringVar(&in.Author, "author", "", "Book author")
	f.StringVar(&in.Description, "description", "", "Book description")
	f.StringVar(&mlURL, "ml-url", "", "Override the classification submit URL")
	f.StringVar(&transform, "transform", "raw", "Score transform: raw, clamp or log")

	return cmd
}
