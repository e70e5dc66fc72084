package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"quizroom/internal/client/api"
	"quizroom/internal/client/authoring"
)

// quizFile is the YAML layout accepted by `quizroom create`.
type quizFile struct {
	Title     string `yaml:"title"`
	TimeLimit int    `yaml:"time_limit"`
	Questions []struct {
		Text    string   `yaml:"text"`
		Options []string `yaml:"options"`
		Correct int      `yaml:"correct"`
	} `yaml:"questions"`
}

// draft runs every question through the editor rules before anything is sent.
func (f quizFile) draft() (*authoring.QuizDraft, error) {
	qd := &authoring.QuizDraft{Title: f.Title, TimeLimit: f.TimeLimit}
	for i, q := range f.Questions {
		d := authoring.NewDraft()
		d.SetText(q.Text)
		for len(d.Options) < len(q.Options) {
			if !d.AddOption() {
				return nil, fmt.Errorf("question %d: too many options", i+1)
			}
		}
		for j, opt := range q.Options {
			if err := d.SetOption(j, opt); err != nil {
				return nil, fmt.Errorf("question %d: %w", i+1, err)
			}
		}
		if err := d.SetCorrect(q.Correct); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		if err := qd.AddQuestion(d); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	if err := qd.Validate(); err != nil {
		return nil, err
	}
	return qd, nil
}

func NewCreateCmd(configPath *string) *cobra.Command {
	var (
		creds credentials
		file  string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a quiz from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return errors.New("--file is required")
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var qf quizFile
			if err := yaml.Unmarshal(data, &qf); err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}
			qd, err := qf.draft()
			if err != nil {
				return err
			}

			env, err := newClientEnv(*configPath)
			if err != nil {
				return err
			}
			if err := env.ensureSignedIn(cmd.Context(), creds); err != nil {
				return err
			}
			id, err := env.api.CreateQuiz(cmd.Context(), api.CreateQuiz{
				UserID:    env.session.Current().UserID,
				Title:     qd.Title,
				TimeLimit: qd.TimeLimit,
				Questions: qd.Questions,
			})
			if err != nil {
				return errors.New(api.UserMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created quiz %d with %d questions\n", id, len(qd.Questions))
			return nil
		},
	}
	creds.bind(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "quiz YAML file")
	return cmd
}
