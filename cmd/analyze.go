package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spigell/airc/internal/extract"
	"github.com/spigell/airc/internal/jobs"
	"github.com/spigell/airc/internal/logger"
	"github.com/spigell/airc/internal/metrics"
	"github.com/spigell/airc/internal/storage"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptNoJob    = "No job, general classification"
	PromptTypeJob  = "Type a job description"
	jobItemPattern = "%s: %s"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <resume.pdf|resume.docx|s3://bucket/key>",
	Short: "Analyze a single resume and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		analyze(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("job-description", "", "job description to score the resume against")
	analyzeCmd.Flags().String("job-file", "", "file with the job description")
	analyzeCmd.Flags().String("job-id", "", "id of a job declared in the config file")
	analyzeCmd.Flags().BoolP("interactive", "i", false, "ask for a job description when none was given")
}

func analyze(cmd *cobra.Command, source string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	catalog, err := jobs.NewCatalog(config.Jobs)
	if err != nil {
		logger.Fatal("loading jobs", zap.Error(err))
	}

	jobDescription, err := resolveJobDescription(cmd, catalog)
	if err != nil {
		logger.Fatal("resolving job description", zap.Error(err))
	}

	doc, err := openDocument(ctx, config, source)
	if err != nil {
		logger.Fatal("opening resume", zap.Error(err), zap.String("source", source))
	}

	analyzer, err := newAnalyzer(ctx, config, metrics.Nop{}, logger)
	if err != nil {
		logger.Fatal("creating analyzer", zap.Error(err))
	}

	record := analyzer.Analyze(ctx, doc, extract.Ext(doc.Name()), jobDescription)

	pretty, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		logger.Fatal("encoding analysis", zap.Error(err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
}

// openDocument accepts a local path or an s3://bucket/key URI.
func openDocument(ctx context.Context, config *Config, source string) (extract.Document, error) {
	bucket, key, ok := storage.ParseS3URI(source)
	if !ok {
		if _, err := os.Stat(source); err != nil {
			return nil, err
		}
		return extract.File(source), nil
	}

	s3cfg := config.Storage.S3
	s3cfg.Bucket = bucket
	s3cfg.Prefix = ""

	store, err := storage.NewS3(ctx, s3cfg)
	if err != nil {
		return nil, err
	}

	obj, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// resolveJobDescription applies the flags in order: inline text, file, job id,
// then the interactive prompt.
func resolveJobDescription(cmd *cobra.Command, catalog *jobs.Catalog) (string, error) {
	if text, _ := cmd.Flags().GetString("job-description"); strings.TrimSpace(text) != "" {
		return text, nil
	}

	if path, _ := cmd.Flags().GetString("job-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading job file: %w", err)
		}
		return string(data), nil
	}

	if id, _ := cmd.Flags().GetString("job-id"); id != "" {
		return catalog.Description(id)
	}

	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		return promptJobDescription(catalog)
	}

	return "", nil
}

func promptJobDescription(catalog *jobs.Catalog) (string, error) {
	items := []string{PromptNoJob, PromptTypeJob}
	for _, job := range catalog.List() {
		items = append(items, fmt.Sprintf(jobItemPattern, job.ID, job.Title))
	}

	selectJob := promptui.Select{
		Label: "Score the resume against",
		Items: items,
	}

	_, selected, err := selectJob.Run()
	if err != nil {
		return "", err
	}

	switch selected {
	case PromptNoJob:
		return "", nil
	case PromptTypeJob:
		input := promptui.Prompt{
			Label: "Job description",
			Validate: func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("job description must not be empty")
				}
				return nil
			},
		}
		return input.Run()
	default:
		id, _, _ := strings.Cut(selected, ":")
		return catalog.Description(id)
	}
}
