package place

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-place-discovery/internal/types"
)

// Ensure implementation satisfies the interface
var _ Repository = (*RepositoryImpl)(nil)

// Repository is the read-mostly gateway to the persisted place catalog. The
// one write path (Create) backs the best-effort persistence of AI-discovered
// places and never sits on a request's critical path.
type Repository interface {
	FindByNameLike(ctx context.Context, terms []string, limit int) ([]types.Place, error)
	FindByCityAndCategory(ctx context.Context, cities, categories []string, excludeIDs []uuid.UUID, limit int) ([]types.Place, error)
	FindByNameKeywordInCity(ctx context.Context, cities []string, keyword string, limit int) ([]types.Place, error)
	FindByCityWithCover(ctx context.Context, cities []string, limit int) ([]types.Place, error)
	ExistsNear(ctx context.Context, name string, lat, lng, delta float64) (bool, error)
	Create(ctx context.Context, candidate types.CandidatePlace) (uuid.UUID, error)
}

// PgxPool is the subset of pgxpool.Pool the repository uses. Narrowing it to
// an interface lets tests swap in pgxmock.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool PgxPool
}

func NewRepository(pgpool PgxPool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

const placeColumns = `
        id, name, city, country, latitude, longitude, rating, rating_count,
        category_en, cover_image, ai_tags, ai_description, is_verified,
        address, phone_number, website, opening_hours`

// FindByNameLike returns rows whose name contains any of the given terms,
// case-insensitive.
func (r *RepositoryImpl) FindByNameLike(ctx context.Context, terms []string, limit int) ([]types.Place, error) {
	ctx, span := otel.Tracer("PlaceRepository").Start(ctx, "FindByNameLike", trace.WithAttributes(
		attribute.Int("terms.count", len(terms)),
	))
	defer span.End()

	patterns := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		patterns = append(patterns, "%"+t+"%")
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
        SELECT %s
        FROM places
        WHERE name ILIKE ANY($1)
        ORDER BY rating DESC, rating_count DESC
        LIMIT $2`, placeColumns)

	rows, err := r.pgpool.Query(ctx, query, patterns, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to query places by name: %w", err)
	}
	defer rows.Close()

	return scanPlaces(rows)
}

// FindByCityAndCategory returns city rows matching any of the mapped
// categories, excluding already-selected ids and rows without a cover image.
// Ordered by rating, then rating count.
func (r *RepositoryImpl) FindByCityAndCategory(ctx context.Context, cities, categories []string, excludeIDs []uuid.UUID, limit int) ([]types.Place, error) {
	ctx, span := otel.Tracer("PlaceRepository").Start(ctx, "FindByCityAndCategory", trace.WithAttributes(
		attribute.Int("cities.count", len(cities)),
		attribute.Int("categories.count", len(categories)),
	))
	defer span.End()

	if len(excludeIDs) == 0 {
		excludeIDs = []uuid.UUID{}
	}
	query := fmt.Sprintf(`
        SELECT %s
        FROM places
        WHERE lower(city) = ANY($1)
          AND lower(category_en) = ANY($2)
          AND cover_image <> ''
          AND NOT (id = ANY($3))
        ORDER BY rating DESC, rating_count DESC
        LIMIT $4`, placeColumns)

	rows, err := r.pgpool.Query(ctx, query, lowerAll(cities), lowerAll(categories), excludeIDs, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to query places by city and category: %w", err)
	}
	defer rows.Close()

	return scanPlaces(rows)
}

// FindByNameKeywordInCity is the relaxed supplement pass: a substring match on
// the place name, still restricted to the city variants and rows with images.
func (r *RepositoryImpl) FindByNameKeywordInCity(ctx context.Context, cities []string, keyword string, limit int) ([]types.Place, error) {
	ctx, span := otel.Tracer("PlaceRepository").Start(ctx, "FindByNameKeywordInCity", trace.WithAttributes(
		attribute.String("keyword", keyword),
	))
	defer span.End()

	query := fmt.Sprintf(`
        SELECT %s
        FROM places
        WHERE lower(city) = ANY($1)
          AND name ILIKE $2
          AND cover_image <> ''
        ORDER BY rating DESC, rating_count DESC
        LIMIT $3`, placeColumns)

	rows, err := r.pgpool.Query(ctx, query, lowerAll(cities), "%"+keyword+"%", limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to query places by name keyword: %w", err)
	}
	defer rows.Close()

	return scanPlaces(rows)
}

// FindByCityWithCover is the unfiltered city-only supplement pass.
func (r *RepositoryImpl) FindByCityWithCover(ctx context.Context, cities []string, limit int) ([]types.Place, error) {
	ctx, span := otel.Tracer("PlaceRepository").Start(ctx, "FindByCityWithCover", trace.WithAttributes(
		attribute.Int("cities.count", len(cities)),
	))
	defer span.End()

	query := fmt.Sprintf(`
        SELECT %s
        FROM places
        WHERE lower(city) = ANY($1)
          AND cover_image <> ''
        ORDER BY rating DESC, rating_count DESC
        LIMIT $2`, placeColumns)

	rows, err := r.pgpool.Query(ctx, query, lowerAll(cities), limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to query places by city: %w", err)
	}
	defer rows.Close()

	return scanPlaces(rows)
}

// ExistsNear reports whether a place with the same name already sits inside
// the coordinate bounding box. Used by the persist worker to avoid duplicate
// inserts at write time.
func (r *RepositoryImpl) ExistsNear(ctx context.Context, name string, lat, lng, delta float64) (bool, error) {
	ctx, span := otel.Tracer("PlaceRepository").Start(ctx, "ExistsNear")
	defer span.End()

	query := `
        SELECT EXISTS (
            SELECT 1 FROM places
            WHERE lower(name) = lower($1)
              AND latitude BETWEEN $2 AND $3
              AND longitude BETWEEN $4 AND $5
        )`

	var exists bool
	err := r.pgpool.QueryRow(ctx, query, name, lat-delta, lat+delta, lng-delta, lng+delta).Scan(&exists)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return false, fmt.Errorf("failed to check place existence: %w", err)
	}
	return exists, nil
}

// Create inserts an AI-discovered candidate into the catalog.
func (r *RepositoryImpl) Create(ctx context.Context, candidate types.CandidatePlace) (uuid.UUID, error) {
	ctx, span := otel.Tracer("PlaceRepository").Start(ctx, "Create", trace.WithAttributes(
		attribute.String("place.name", candidate.Name),
	))
	defer span.End()

	if candidate.Name == "" {
		return uuid.Nil, fmt.Errorf("place name is required")
	}
	if candidate.Latitude < -90 || candidate.Latitude > 90 || candidate.Longitude < -180 || candidate.Longitude > 180 {
		return uuid.Nil, fmt.Errorf("invalid coordinates: lat=%f, lng=%f", candidate.Latitude, candidate.Longitude)
	}

	query := `
        INSERT INTO places (
            name, city, country, latitude, longitude, category_en, ai_tags, ai_description
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8
        ) RETURNING id`

	tags := candidate.Tags
	if tags == nil {
		tags = []string{}
	}

	var id uuid.UUID
	err := r.pgpool.QueryRow(ctx, query,
		candidate.Name, candidate.City, candidate.Country,
		candidate.Latitude, candidate.Longitude,
		candidate.Category, tags, candidate.Summary,
	).Scan(&id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return uuid.Nil, fmt.Errorf("failed to insert place: %w", err)
	}

	span.SetStatus(codes.Ok, "place created")
	return id, nil
}

func scanPlaces(rows pgx.Rows) ([]types.Place, error) {
	var places []types.Place
	for rows.Next() {
		var p types.Place
		err := rows.Scan(
			&p.ID, &p.Name, &p.City, &p.Country, &p.Latitude, &p.Longitude,
			&p.Rating, &p.RatingCount, &p.CategoryEn, &p.CoverImage,
			&p.AiTags, &p.AiDescription, &p.IsVerified,
			&p.Address, &p.PhoneNumber, &p.Website, &p.OpeningHours,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan place row: %w", err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating place rows: %w", err)
	}
	return places, nil
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
