// Package importer loads question catalogs and legacy user data into the
// stores.
package importer

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/platform/logger"
	"github.com/Chesten223/SoRight3/internal/store"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.schema.json
var catalogSchema string

var schemaLoader = gojsonschema.NewStringLoader(catalogSchema)

// Importer writes imported data through a TxManager.
type Importer struct {
	tx     store.TxManager
	logger *slog.Logger
}

// New creates an Importer. It panics if tx is nil.
func New(tx store.TxManager, logger *slog.Logger) *Importer {
	if tx == nil {
		panic("importer: tx cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{tx: tx, logger: logger.With(slog.String("component", "importer"))}
}

// CatalogResult counts the questions written and the ids already present.
type CatalogResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// questionRecord is a question as it appears in catalog files. It accepts
// both the current field names and the older correct_id/ai_context shape.
type questionRecord struct {
	ID              string          `json:"id" yaml:"id"`
	Content         string          `json:"content" yaml:"content"`
	Options         []domain.Option `json:"options" yaml:"options"`
	CorrectOptionID string          `json:"correct_option_id" yaml:"correct_option_id"`
	CorrectID       string          `json:"correct_id" yaml:"correct_id"`
	Tags            []string        `json:"tags" yaml:"tags"`
	Mode            string          `json:"mode" yaml:"mode"`
	Explanation     string          `json:"explanation" yaml:"explanation"`
	Diagnosis       string          `json:"diagnosis" yaml:"diagnosis"`
	AIContext       struct {
		Explanation string `json:"explanation" yaml:"explanation"`
		Diagnosis   string `json:"diagnosis" yaml:"diagnosis"`
	} `json:"ai_context" yaml:"ai_context"`
}

type catalogFile struct {
	Mode      string           `json:"mode" yaml:"mode"`
	Questions []questionRecord `json:"questions" yaml:"questions"`
}

// ParseCatalog decodes a catalog file whose format is chosen by the
// extension of name. The mode of each question is, in order of precedence,
// override, the file-level mode key, a mode named by the file
// ("exam_questions.json"), and the question's own mode key.
func ParseCatalog(name string, data []byte, override string) ([]domain.Question, error) {
	var (
		file catalogFile
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".json":
		file, err = decodeJSON(data)
	case ".yaml", ".yml":
		file, err = decodeYAML(data)
	default:
		return nil, domain.NewValidationError("file", fmt.Sprintf("unsupported catalog format %q", ext), nil)
	}
	if err != nil {
		return nil, err
	}

	fileMode := domain.NormalizeMode(override)
	if fileMode == "" {
		fileMode = domain.NormalizeMode(file.Mode)
	}
	if fileMode == "" {
		fileMode = modeFromName(name)
	}

	questions := make([]domain.Question, 0, len(file.Questions))
	for i, r := range file.Questions {
		q := r.toQuestion(fileMode)
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question %d (%s): %w", i, r.ID, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func decodeJSON(data []byte) (catalogFile, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return catalogFile{}, domain.NewValidationError("file", "not valid JSON: "+err.Error(), nil)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return catalogFile{}, domain.NewValidationError("file", strings.Join(msgs, "; "), nil)
	}

	var file catalogFile
	if strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		err = json.Unmarshal(data, &file.Questions)
	} else {
		err = json.Unmarshal(data, &file)
	}
	return file, err
}

func decodeYAML(data []byte) (catalogFile, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return catalogFile{}, domain.NewValidationError("file", "not valid YAML: "+err.Error(), nil)
	}

	var (
		file catalogFile
		err  error
	)
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		err = node.Decode(&file.Questions)
	} else {
		err = node.Decode(&file)
	}
	if err != nil {
		return catalogFile{}, domain.NewValidationError("file", err.Error(), nil)
	}
	return file, nil
}

// modeFromName recognises catalog files named after a known mode.
func modeFromName(name string) string {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	head, _, _ := strings.Cut(base, "_")
	switch mode := domain.NormalizeMode(head); mode {
	case domain.ModePractice, domain.ModeExam:
		return mode
	}
	return ""
}

func (r questionRecord) toQuestion(fileMode string) domain.Question {
	q := domain.Question{
		ID:              strings.TrimSpace(r.ID),
		Content:         r.Content,
		Options:         r.Options,
		CorrectOptionID: r.CorrectOptionID,
		Tags:            domain.NormalizeSet(r.Tags),
		Mode:            fileMode,
		Explanation:     r.Explanation,
		Diagnosis:       r.Diagnosis,
	}
	if q.CorrectOptionID == "" {
		q.CorrectOptionID = r.CorrectID
	}
	if q.Mode == "" {
		q.Mode = domain.NormalizeMode(r.Mode)
	}
	if q.Explanation == "" {
		q.Explanation = r.AIContext.Explanation
	}
	if q.Diagnosis == "" {
		q.Diagnosis = r.AIContext.Diagnosis
	}
	return q
}

// ImportCatalog reads every file and inserts its questions. Each file is
// imported in its own unit of work; ids already in the catalog are skipped.
func (im *Importer) ImportCatalog(ctx context.Context, paths []string, modeOverride string) (*CatalogResult, error) {
	log := logger.FromContextOrDefault(ctx, im.logger)
	total := &CatalogResult{}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return total, fmt.Errorf("read catalog %s: %w", path, err)
		}
		questions, err := ParseCatalog(path, data, modeOverride)
		if err != nil {
			return total, fmt.Errorf("parse catalog %s: %w", path, err)
		}

		var res CatalogResult
		err = im.tx.WithinTx(ctx, func(ctx context.Context, stores *store.Stores) error {
			res = CatalogResult{}
			for i := range questions {
				inserted, err := stores.Catalog.Insert(ctx, &questions[i])
				if err != nil {
					return err
				}
				if inserted {
					res.Inserted++
				} else {
					res.Skipped++
				}
			}
			return nil
		})
		if err != nil {
			return total, fmt.Errorf("import catalog %s: %w", path, err)
		}

		total.Inserted += res.Inserted
		total.Skipped += res.Skipped
		log.Info("catalog file imported",
			slog.String("file", filepath.Base(path)),
			slog.Int("inserted", res.Inserted),
			slog.Int("skipped", res.Skipped))
	}
	return total, nil
}
