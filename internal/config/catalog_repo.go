package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/larriantoniy/tg_sales_bot/internal/domain"
)

// FileCatalogRepo читает каталог из YAML или JSON файла
type FileCatalogRepo struct {
	path     string // "./catalog.yaml"
	validate *validator.Validate
}

func NewFileCatalogRepo(path string) *FileCatalogRepo {
	return &FileCatalogRepo{path: path, validate: validator.New()}
}

type catalogFile struct {
	Items []domain.CatalogItem `json:"items" yaml:"items"`
}

func (r *FileCatalogRepo) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	// путь не задан — встроенный каталог
	if r.path == "" {
		return domain.DefaultCatalog(), nil
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}

	var raw catalogFile
	switch strings.ToLower(filepath.Ext(r.path)) {
	case ".json":
		err = json.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", filepath.Ext(r.path))
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", r.path, err)
	}

	if len(raw.Items) == 0 {
		return nil, fmt.Errorf("catalog %s is empty", r.path)
	}
	for i := range raw.Items {
		if err := r.validate.Struct(raw.Items[i]); err != nil {
			return nil, fmt.Errorf("catalog item #%d: %w", i, err)
		}
	}

	return domain.Catalog(raw.Items), nil
}
