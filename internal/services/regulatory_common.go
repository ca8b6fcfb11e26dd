package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/mizanhq/mizan-backend/internal/data/repos"
	types "github.com/mizanhq/mizan-backend/internal/domain"
	"github.com/mizanhq/mizan-backend/internal/domain/regulatory"
	"github.com/mizanhq/mizan-backend/internal/pkg/dbctx"
	pkgerrors "github.com/mizanhq/mizan-backend/internal/pkg/errors"
	"github.com/mizanhq/mizan-backend/internal/regmap"
)

func metadataJSON(raw json.RawMessage) (datatypes.JSON, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if !json.Valid([]byte(trimmed)) {
		return nil, fmt.Errorf("%w: metadata must be valid JSON", pkgerrors.ErrInvalidArgument)
	}
	return datatypes.JSON(trimmed), nil
}

func normalizePriority(p string) string {
	return string(regulatory.NormalizePriority(regulatory.Priority(p)))
}

// ensureContains creates the structural parent -> child edge when missing.
func ensureContains(dbc dbctx.Context, edges repos.EdgeRepo, parentID uuid.UUID, parentKind regmap.Kind, childID uuid.UUID, childKind regmap.Kind) error {
	ok, err := edges.Exists(dbc, parentID, childID, regmap.RelContains)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	_, err = edges.Create(dbc, []*types.Edge{regulatory.ContainsEdge(parentID, parentKind, childID, childKind)})
	return err
}

// nodeResolver finds which entity table an id belongs to.
type nodeResolver struct {
	frameworks repos.FrameworkRepo
	controls   repos.ControlRepo
	articles   repos.ArticleRepo
	provisions repos.ProvisionRepo
}

func (r nodeResolver) kindOf(dbc dbctx.Context, id uuid.UUID) (regmap.Kind, error) {
	ids := []uuid.UUID{id}
	if rows, err := r.frameworks.GetByIDs(dbc, ids); err != nil {
		return "", err
	} else if len(rows) > 0 {
		return regmap.KindFramework, nil
	}
	if rows, err := r.controls.GetByIDs(dbc, ids); err != nil {
		return "", err
	} else if len(rows) > 0 {
		return regmap.KindControl, nil
	}
	if rows, err := r.articles.GetByIDs(dbc, ids); err != nil {
		return "", err
	} else if len(rows) > 0 {
		return regmap.KindArticle, nil
	}
	if rows, err := r.provisions.GetByIDs(dbc, ids); err != nil {
		return "", err
	} else if len(rows) > 0 {
		return regmap.KindProvision, nil
	}
	return "", fmt.Errorf("entity %s: %w", id, pkgerrors.ErrNotFound)
}
