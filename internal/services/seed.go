package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/mizanhq/mizan-backend/internal/data/repos"
	types "github.com/mizanhq/mizan-backend/internal/domain"
	"github.com/mizanhq/mizan-backend/internal/pkg/dbctx"
	pkgerrors "github.com/mizanhq/mizan-backend/internal/pkg/errors"
	"github.com/mizanhq/mizan-backend/internal/platform/logger"
	"github.com/mizanhq/mizan-backend/internal/regmap"
)

type SeedDocument struct {
	Frameworks []SeedFramework `yaml:"frameworks"`
	Edges      []SeedEdge      `yaml:"edges"`
}

type SeedFramework struct {
	Code        string        `yaml:"code"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Authority   string        `yaml:"authority"`
	Category    string        `yaml:"category"`
	Version     string        `yaml:"version"`
	Controls    []SeedControl `yaml:"controls"`
	Articles    []SeedArticle `yaml:"articles"`
}

type SeedControl struct {
	Code        string `yaml:"code"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Domain      string `yaml:"domain"`
	Priority    string `yaml:"priority"`
}

type SeedArticle struct {
	Code       string          `yaml:"code"`
	Title      string          `yaml:"title"`
	Body       string          `yaml:"body"`
	Category   string          `yaml:"category"`
	Priority   string          `yaml:"priority"`
	Provisions []SeedProvision `yaml:"provisions"`
}

type SeedProvision struct {
	Code     string `yaml:"code"`
	Name     string `yaml:"name"`
	Text     string `yaml:"text"`
	Category string `yaml:"category"`
	Priority string `yaml:"priority"`
}

// SeedEdge addresses its ends by path, e.g. "framework:PDPL/article:4" or
// "framework:ECC/control:2-1-1".
type SeedEdge struct {
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	Relation string `yaml:"relation"`
	Note     string `yaml:"note"`
}

type SeedCounts struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

type SeedReport struct {
	Reset        bool       `json:"reset"`
	Frameworks   SeedCounts `json:"frameworks"`
	Controls     SeedCounts `json:"controls"`
	Articles     SeedCounts `json:"articles"`
	Provisions   SeedCounts `json:"provisions"`
	EdgesCreated int        `json:"edges_created"`
	EdgesSkipped int        `json:"edges_skipped"`
}

func ParseSeed(r io.Reader) (*SeedDocument, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc SeedDocument
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, fmt.Errorf("%w: seed: %v", pkgerrors.ErrInvalidArgument, err)
	}
	return &doc, nil
}

func LoadSeedFile(path string) (*SeedDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return ParseSeed(f)
}

type SeedService interface {
	Seed(ctx context.Context, doc *SeedDocument, reset bool) (*SeedReport, error)
}

type seedService struct {
	db         *gorm.DB
	log        *logger.Logger
	frameworks repos.FrameworkRepo
	controls   repos.ControlRepo
	articles   repos.ArticleRepo
	provisions repos.ProvisionRepo
	edges      repos.EdgeRepo
	graph      GraphInvalidator
}

func NewSeedService(
	db *gorm.DB,
	log *logger.Logger,
	frameworks repos.FrameworkRepo,
	controls repos.ControlRepo,
	articles repos.ArticleRepo,
	provisions repos.ProvisionRepo,
	edges repos.EdgeRepo,
	graph GraphInvalidator,
) SeedService {
	return &seedService{
		db:         db,
		log:        log.With("service", "SeedService"),
		frameworks: frameworks,
		controls:   controls,
		articles:   articles,
		provisions: provisions,
		edges:      edges,
		graph:      graph,
	}
}

// seedRefs maps seed paths to the entity they resolved to.
type seedRefs map[string]seedRef

type seedRef struct {
	id   uuid.UUID
	kind regmap.Kind
}

func seedPath(parts ...string) string { return strings.Join(parts, "/") }

func seedSegment(kind regmap.Kind, code string) string {
	return string(kind) + ":" + strings.TrimSpace(code)
}

// Seed upserts every entity in doc by code and creates the listed edges that
// do not exist yet. The whole document is applied in one transaction.
func (ss *seedService) Seed(ctx context.Context, doc *SeedDocument, reset bool) (*SeedReport, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: seed document is required", pkgerrors.ErrInvalidArgument)
	}
	report := &SeedReport{Reset: reset}
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if reset {
			if err := ss.reset(dbc); err != nil {
				return err
			}
		}
		refs := seedRefs{}
		for i := range doc.Frameworks {
			if err := ss.seedFramework(dbc, &doc.Frameworks[i], refs, report); err != nil {
				return err
			}
		}
		for i, e := range doc.Edges {
			if err := ss.seedEdge(dbc, e, refs, report); err != nil {
				return fmt.Errorf("edge %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ss.log.Info("seed applied",
		"reset", reset,
		"frameworks_created", report.Frameworks.Created,
		"controls_created", report.Controls.Created,
		"articles_created", report.Articles.Created,
		"provisions_created", report.Provisions.Created,
		"edges_created", report.EdgesCreated,
	)
	ss.graph.Invalidate(ctx)
	return report, nil
}

func (ss *seedService) reset(dbc dbctx.Context) error {
	if err := ss.edges.DeleteAll(dbc); err != nil {
		return err
	}
	if err := ss.provisions.DeleteAll(dbc); err != nil {
		return err
	}
	if err := ss.articles.DeleteAll(dbc); err != nil {
		return err
	}
	if err := ss.controls.DeleteAll(dbc); err != nil {
		return err
	}
	return ss.frameworks.DeleteAll(dbc)
}

func (ss *seedService) seedFramework(dbc dbctx.Context, sf *SeedFramework, refs seedRefs, report *SeedReport) error {
	in := FrameworkInput{
		Code:        sf.Code,
		Name:        sf.Name,
		Description: sf.Description,
		Authority:   sf.Authority,
		Category:    sf.Category,
		Version:     sf.Version,
	}
	in.normalize()
	if err := validateInput(in); err != nil {
		return fmt.Errorf("framework %q: %w", sf.Code, err)
	}

	existing, err := ss.frameworks.GetByCodes(dbc, []string{in.Code})
	if err != nil {
		return err
	}
	var f *types.Framework
	if len(existing) > 0 {
		f = existing[0]
		f.Name, f.Description, f.Authority, f.Category, f.Version = in.Name, in.Description, in.Authority, in.Category, in.Version
		if err := ss.frameworks.Update(dbc, f); err != nil {
			return err
		}
		report.Frameworks.Updated++
	} else {
		f = &types.Framework{
			Code:        in.Code,
			Name:        in.Name,
			Description: in.Description,
			Authority:   in.Authority,
			Category:    in.Category,
			Version:     in.Version,
		}
		if _, err := ss.frameworks.Create(dbc, []*types.Framework{f}); err != nil {
			return classifyWriteErr(err, fmt.Sprintf("framework %q", in.Code))
		}
		report.Frameworks.Created++
	}
	fwPath := seedSegment(regmap.KindFramework, f.Code)
	refs[fwPath] = seedRef{id: f.ID, kind: regmap.KindFramework}

	for _, sc := range sf.Controls {
		id, err := ss.seedControl(dbc, f.ID, sc, report)
		if err != nil {
			return fmt.Errorf("framework %q: %w", f.Code, err)
		}
		refs[seedPath(fwPath, seedSegment(regmap.KindControl, sc.Code))] = seedRef{id: id, kind: regmap.KindControl}
	}
	for _, sa := range sf.Articles {
		a, err := ss.seedArticle(dbc, f.ID, sa, report)
		if err != nil {
			return fmt.Errorf("framework %q: %w", f.Code, err)
		}
		artPath := seedPath(fwPath, seedSegment(regmap.KindArticle, sa.Code))
		refs[artPath] = seedRef{id: a, kind: regmap.KindArticle}
		for _, sp := range sa.Provisions {
			pid, err := ss.seedProvision(dbc, a, sp, report)
			if err != nil {
				return fmt.Errorf("framework %q article %q: %w", f.Code, sa.Code, err)
			}
			refs[seedPath(artPath, seedSegment(regmap.KindProvision, sp.Code))] = seedRef{id: pid, kind: regmap.KindProvision}
		}
	}
	return nil
}

func (ss *seedService) seedControl(dbc dbctx.Context, frameworkID uuid.UUID, sc SeedControl, report *SeedReport) (uuid.UUID, error) {
	in := ControlInput{
		FrameworkID: frameworkID.String(),
		Code:        sc.Code,
		Name:        sc.Name,
		Description: sc.Description,
		Domain:      sc.Domain,
		Priority:    sc.Priority,
	}
	in.normalize()
	if err := validateInput(in); err != nil {
		return uuid.Nil, fmt.Errorf("control %q: %w", sc.Code, err)
	}
	c, err := ss.controls.GetByFrameworkAndCode(dbc, frameworkID, in.Code)
	if err != nil {
		return uuid.Nil, err
	}
	if c != nil {
		c.Name, c.Description, c.Domain, c.Priority = in.Name, in.Description, in.Domain, types.Priority(in.Priority)
		if err := ss.controls.Update(dbc, c); err != nil {
			return uuid.Nil, err
		}
		report.Controls.Updated++
	} else {
		c = &types.Control{
			FrameworkID: frameworkID,
			Code:        in.Code,
			Name:        in.Name,
			Description: in.Description,
			Domain:      in.Domain,
			Priority:    types.Priority(in.Priority),
		}
		if _, err := ss.controls.Create(dbc, []*types.Control{c}); err != nil {
			return uuid.Nil, classifyWriteErr(err, fmt.Sprintf("control %q", in.Code))
		}
		report.Controls.Created++
	}
	return c.ID, ensureContains(dbc, ss.edges, frameworkID, regmap.KindFramework, c.ID, regmap.KindControl)
}

func (ss *seedService) seedArticle(dbc dbctx.Context, frameworkID uuid.UUID, sa SeedArticle, report *SeedReport) (uuid.UUID, error) {
	in := ArticleInput{
		FrameworkID: frameworkID.String(),
		Code:        sa.Code,
		Title:       sa.Title,
		Body:        sa.Body,
		Category:    sa.Category,
		Priority:    sa.Priority,
	}
	in.normalize()
	if err := validateInput(in); err != nil {
		return uuid.Nil, fmt.Errorf("article %q: %w", sa.Code, err)
	}
	a, err := ss.articles.GetByFrameworkAndCode(dbc, frameworkID, in.Code)
	if err != nil {
		return uuid.Nil, err
	}
	if a != nil {
		a.Title, a.Body, a.Category, a.Priority = in.Title, in.Body, in.Category, types.Priority(in.Priority)
		if err := ss.articles.Update(dbc, a); err != nil {
			return uuid.Nil, err
		}
		report.Articles.Updated++
	} else {
		a = &types.Article{
			FrameworkID: frameworkID,
			Code:        in.Code,
			Title:       in.Title,
			Body:        in.Body,
			Category:    in.Category,
			Priority:    types.Priority(in.Priority),
		}
		if _, err := ss.articles.Create(dbc, []*types.Article{a}); err != nil {
			return uuid.Nil, classifyWriteErr(err, fmt.Sprintf("article %q", in.Code))
		}
		report.Articles.Created++
	}
	return a.ID, ensureContains(dbc, ss.edges, frameworkID, regmap.KindFramework, a.ID, regmap.KindArticle)
}

func (ss *seedService) seedProvision(dbc dbctx.Context, articleID uuid.UUID, sp SeedProvision, report *SeedReport) (uuid.UUID, error) {
	in := ProvisionInput{
		ArticleID: articleID.String(),
		Code:      sp.Code,
		Name:      sp.Name,
		Text:      sp.Text,
		Category:  sp.Category,
		Priority:  sp.Priority,
	}
	in.normalize()
	if err := validateInput(in); err != nil {
		return uuid.Nil, fmt.Errorf("provision %q: %w", sp.Code, err)
	}
	p, err := ss.provisions.GetByArticleAndCode(dbc, articleID, in.Code)
	if err != nil {
		return uuid.Nil, err
	}
	if p != nil {
		p.Name, p.Text, p.Category, p.Priority = in.Name, in.Text, in.Category, types.Priority(in.Priority)
		if err := ss.provisions.Update(dbc, p); err != nil {
			return uuid.Nil, err
		}
		report.Provisions.Updated++
	} else {
		p = &types.Provision{
			ArticleID: articleID,
			Code:      in.Code,
			Name:      in.Name,
			Text:      in.Text,
			Category:  in.Category,
			Priority:  types.Priority(in.Priority),
		}
		if _, err := ss.provisions.Create(dbc, []*types.Provision{p}); err != nil {
			return uuid.Nil, classifyWriteErr(err, fmt.Sprintf("provision %q", in.Code))
		}
		report.Provisions.Created++
	}
	return p.ID, ensureContains(dbc, ss.edges, articleID, regmap.KindArticle, p.ID, regmap.KindProvision)
}

func (ss *seedService) seedEdge(dbc dbctx.Context, se SeedEdge, refs seedRefs, report *SeedReport) error {
	rel := regmap.Relation(strings.ToLower(strings.TrimSpace(se.Relation)))
	if rel == "" {
		rel = regmap.RelRelated
	}
	if !rel.Valid() || rel == regmap.RelContains {
		return fmt.Errorf("%w: relation %q cannot be seeded", pkgerrors.ErrInvalidArgument, se.Relation)
	}
	from, err := resolveSeedPath(refs, se.From)
	if err != nil {
		return err
	}
	to, err := resolveSeedPath(refs, se.To)
	if err != nil {
		return err
	}
	if from.id == to.id {
		return fmt.Errorf("%w: edge %q points at itself", pkgerrors.ErrInvalidArgument, se.From)
	}
	exists, err := ss.edges.Exists(dbc, from.id, to.id, rel)
	if err != nil {
		return err
	}
	if exists {
		report.EdgesSkipped++
		return nil
	}
	_, err = ss.edges.Create(dbc, []*types.Edge{{
		FromID:   from.id,
		FromKind: from.kind,
		ToID:     to.id,
		ToKind:   to.kind,
		Relation: rel,
		Note:     strings.TrimSpace(se.Note),
	}})
	if err != nil {
		return err
	}
	report.EdgesCreated++
	return nil
}

// resolveSeedPath normalises whitespace around separators before lookup.
func resolveSeedPath(refs seedRefs, raw string) (seedRef, error) {
	segs := strings.Split(strings.TrimSpace(raw), "/")
	for i, s := range segs {
		kind, code, ok := strings.Cut(s, ":")
		if !ok {
			return seedRef{}, fmt.Errorf("%w: malformed seed path %q", pkgerrors.ErrInvalidArgument, raw)
		}
		k, valid := regmap.ParseKind(kind)
		if !valid {
			return seedRef{}, fmt.Errorf("%w: unknown kind %q in seed path %q", pkgerrors.ErrInvalidArgument, kind, raw)
		}
		segs[i] = seedSegment(k, code)
	}
	ref, ok := refs[seedPath(segs...)]
	if !ok {
		return seedRef{}, fmt.Errorf("%w: seed path %q does not name a seeded entity", pkgerrors.ErrInvalidArgument, raw)
	}
	return ref, nil
}
