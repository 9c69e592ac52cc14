package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"resume-builder/internal/extract"
	"resume-builder/internal/form"
	"resume-builder/internal/generation"
	"resume-builder/internal/generation/openai"
	"resume-builder/internal/prompt"
	"resume-builder/internal/shared/config"
	"resume-builder/internal/templates"
	"resume-builder/internal/validation"
	"resume-builder/internal/wizard"
)

// answers are the wizard inputs, read from a YAML file and overridden by flags.
type answers struct {
	Resume             string `yaml:"resume"`
	JobDescription     string `yaml:"jobDescription"`
	JobDescriptionFile string `yaml:"jobDescriptionFile"`
	JobRole            string `yaml:"jobRole"`
	Template           string `yaml:"template"`
	Personalization    string `yaml:"personalization"`
	Authenticated      bool   `yaml:"authenticated"`
}

type buildOptions struct {
	answersFile string
	flags       answers
	out         string
	generate    bool
}

func newBuildCmd() *cobra.Command {
	var opts buildOptions
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run the wizard steps and print the generation prompt",
		Long: `Run the three wizard steps with the given answers and print the prompt.

Answers come from --answers (YAML) and individual flags; flags win.

Example:
  resumeprompt build --resume cv.tex --jd-file jd.txt --role "Backend Engineer" --template your-format
  resumeprompt build --answers answers.yaml --generate --out resume.tex`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.answersFile, "answers", "", "YAML file with wizard answers")
	f.StringVar(&opts.flags.Resume, "resume", "", "Resume file (.pdf, .docx or .tex)")
	f.StringVar(&opts.flags.JobDescription, "jd", "", "Job description text")
	f.StringVar(&opts.flags.JobDescriptionFile, "jd-file", "", "File containing the job description")
	f.StringVar(&opts.flags.JobRole, "role", "", "Target job role")
	f.StringVar(&opts.flags.Template, "template", "", "Template: modern, classic, old-school or your-format")
	f.StringVar(&opts.flags.Personalization, "personalize", "", "Personalization prompt (requires --authenticated)")
	f.BoolVar(&opts.flags.Authenticated, "authenticated", false, "Act as a signed-in user")
	f.StringVar(&opts.out, "out", "", "Write output to this file instead of stdout")
	f.BoolVar(&opts.generate, "generate", false, "Send the prompt to the configured generation provider and output LaTeX")
	return cmd
}

func runBuild(cmd *cobra.Command, opts buildOptions) error {
	a, err := loadAnswers(opts.answersFile)
	if err != nil {
		return err
	}
	mergeAnswers(&a, opts.flags, cmd.Flags().Changed("authenticated"))

	jd, err := jobDescription(a)
	if err != nil {
		return err
	}
	if strings.TrimSpace(a.Resume) == "" {
		return errors.New("a resume file is required (--resume or answers.resume)")
	}

	text, file, extractErr := readResume(cmd, a.Resume)
	var failed *extract.ExtractionError
	switch {
	case extractErr == nil:
	case errors.As(extractErr, &failed):
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s; continuing without resume text\n", failed.Error())
		extractErr = failed
	default:
		return extractErr
	}
	file.ID = uuid.NewString()

	tmpl, err := templates.Parse(a.Template)
	if err != nil {
		return errors.Wrap(err, "template")
	}

	m := wizard.NewMachine()
	m.UpdateResumeFile(file)
	m.BeginExtraction(file.ID)
	m.CompleteExtraction(file.ID, text, extractErr)
	m.UpdateJobDescription(jd)
	if err := advance(m, a.Authenticated); err != nil {
		return err
	}

	m.UpdateJobRole(a.JobRole)
	if tmpl != templates.None {
		m.SelectTemplate(tmpl)
	}
	if err := advance(m, a.Authenticated); err != nil {
		return err
	}

	if a.Authenticated {
		m.UpdatePersonalizationPrompt(a.Personalization)
	} else if strings.TrimSpace(a.Personalization) != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "note: personalization ignored for guests; pass --authenticated to use it")
	}
	if err := advance(m, a.Authenticated); err != nil {
		return err
	}

	st := m.State()
	out, err := prompt.Build(st)
	if err != nil {
		return errors.Wrap(err, "build prompt")
	}

	if opts.generate {
		gen, err := generatorFromConfig(config.Load())
		if err != nil {
			return err
		}
		out, err = gen.Generate(cmd.Context(), generation.Request{
			Prompt:         out,
			JobDescription: st.JobDescription,
			ResumeText:     st.ExtractedText(),
		})
		if err != nil {
			return errors.Wrap(err, "generate resume")
		}
	}
	return writeOutput(cmd, opts.out, out)
}

// advance validates the current step and moves on, reporting field errors.
func advance(m *wizard.Machine, isAuthenticated bool) error {
	step := m.State().CurrentStep
	res := m.NextStep(isAuthenticated)
	if res.IsValid {
		return nil
	}
	return stepError(step, res)
}

func stepError(step form.Step, res validation.Result) error {
	fields := make([]string, 0, len(res.Errors))
	for field := range res.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, field := range fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, res.Errors[field]))
	}
	return errors.Errorf("step %d is incomplete: %s", step, strings.Join(msgs, "; "))
}

func loadAnswers(path string) (answers, error) {
	var a answers
	if strings.TrimSpace(path) == "" {
		return a, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return a, errors.Wrapf(err, "read answers %s", path)
	}
	if err := yaml.Unmarshal(data, &a); err != nil {
		return a, errors.Wrapf(err, "parse answers %s", path)
	}
	base := filepath.Dir(path)
	if a.Resume != "" && !filepath.IsAbs(a.Resume) {
		a.Resume = filepath.Join(base, a.Resume)
	}
	if a.JobDescriptionFile != "" && !filepath.IsAbs(a.JobDescriptionFile) {
		a.JobDescriptionFile = filepath.Join(base, a.JobDescriptionFile)
	}
	return a, nil
}

func mergeAnswers(dst *answers, src answers, authChanged bool) {
	if src.Resume != "" {
		dst.Resume = src.Resume
	}
	if src.JobDescription != "" {
		dst.JobDescription = src.JobDescription
		dst.JobDescriptionFile = ""
	}
	if src.JobDescriptionFile != "" {
		dst.JobDescriptionFile = src.JobDescriptionFile
	}
	if src.JobRole != "" {
		dst.JobRole = src.JobRole
	}
	if src.Template != "" {
		dst.Template = src.Template
	}
	if src.Personalization != "" {
		dst.Personalization = src.Personalization
	}
	if authChanged {
		dst.Authenticated = src.Authenticated
	}
}

func jobDescription(a answers) (string, error) {
	if a.JobDescriptionFile == "" {
		return a.JobDescription, nil
	}
	data, err := os.ReadFile(a.JobDescriptionFile)
	if err != nil {
		return "", errors.Wrapf(err, "read job description %s", a.JobDescriptionFile)
	}
	return string(data), nil
}

func generatorFromConfig(cfg config.Config) (generation.Generator, error) {
	if cfg.LLMProvider != "openai" {
		return nil, errors.Wrap(generation.ErrNotConfigured, "set LLM_PROVIDER=openai")
	}
	client, err := openai.NewClient(openai.Options{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.LLMModel,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.OpenAITimeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "openai client")
	}
	return client, nil
}

func writeOutput(cmd *cobra.Command, path, content string) error {
	if path == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
	return nil
}
