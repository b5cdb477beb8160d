package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"archivum/internal/config"
)

func initCmd() *cobra.Command {
	var dir string
	var dsn string
	var withVocabulary bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold an archivum.yaml (and optionally a vocabulary file)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := runInit(dir, dsn, withVocabulary)
			if err != nil {
				return err
			}
			for _, path := range written {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to write into")
	cmd.Flags().StringVar(&dsn, "dsn", "sqlite://archivum.db", "Database DSN (postgres://... or sqlite://path)")
	cmd.Flags().BoolVar(&withVocabulary, "vocabulary", false, "Also write vocabulary.yaml with the default relation types")
	return cmd
}

const configTemplate = `database:
  dsn: %s

llm:
  provider: anthropic
  model: claude-3-5-sonnet-latest
  # api_key is normally supplied via ARCHIVUM_LLM_API_KEY.

server:
  addr: 127.0.0.1:8080

lock:
  backend: memory

neo4j:
  uri: ""
  username: neo4j
  database: neo4j

layout:
  width: 800
  height: 600
  stop_rule: duration

log:
  level: info
  format: console
%s`

func runInit(dir, dsn string, withVocabulary bool) ([]string, error) {
	configPath := filepath.Join(dir, "archivum.yaml")
	vocabPath := filepath.Join(dir, "vocabulary.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return nil, fmt.Errorf("%s already exists", configPath)
	}
	if withVocabulary {
		if _, err := os.Stat(vocabPath); err == nil {
			return nil, fmt.Errorf("%s already exists", vocabPath)
		}
	}

	vocabSection := ""
	if withVocabulary {
		vocabSection = "\nvocabulary:\n  path: vocabulary.yaml\n"
	}
	contents := fmt.Sprintf(configTemplate, dsn, vocabSection)
	if err := os.WriteFile(configPath, []byte(contents), 0o600); err != nil {
		return nil, fmt.Errorf("writing %s: %w", configPath, err)
	}
	written := []string{configPath}

	if withVocabulary {
		data, err := yaml.Marshal(config.DefaultVocabulary())
		if err != nil {
			return nil, fmt.Errorf("encoding vocabulary: %w", err)
		}
		if err := os.WriteFile(vocabPath, data, 0o600); err != nil {
			return nil, fmt.Errorf("writing %s: %w", vocabPath, err)
		}
		written = append(written, vocabPath)
	}

	return written, nil
}
