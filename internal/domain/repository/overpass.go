package repository

import (
	"agri_service/internal/domain/model"
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/serjvanilla/go-overpass"
)

const DefaultOverpassEndpoint = "https://overpass-api.de/api/interpreter"

// Overpass отдаёт center как середину bbox элемента, поэтому запрашиваем bb
const waterQueryTemplate = `
	[out:json][timeout:180];
	(
		way["waterway"="river"](%[1]s);
		way["waterway"="stream"](%[1]s);
		relation["waterway"="river"](%[1]s);
		way["natural"="water"](%[1]s);
		way["water"="lake"](%[1]s);
		way["water"="reservoir"](%[1]s);
		relation["natural"="water"](%[1]s);
		way["waterway"="dam"](%[1]s);
	);
	out tags bb;
`

type OverpassRepository struct {
	client  *overpass.Client
	timeout time.Duration
}

func NewOverpassRepository(endpoint string, timeout time.Duration) *OverpassRepository {
	if endpoint == "" {
		endpoint = DefaultOverpassEndpoint
	}
	httpClient := &http.Client{
		Timeout: timeout,
	}
	client := overpass.NewWithSettings(endpoint, 1, httpClient)
	return &OverpassRepository{
		client:  &client,
		timeout: timeout,
	}
}

// GetWaterSources issues the single bulk water query for bbox.
func (r *OverpassRepository) GetWaterSources(ctx context.Context, bbox string) ([]model.WaterFeature, error) {
	query := fmt.Sprintf(waterQueryTemplate, bbox)

	result, err := r.executeQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute water sources query: %w", err)
	}

	return convertToWaterFeatures(result), nil
}

func (r *OverpassRepository) executeQuery(ctx context.Context, query string) (*overpass.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := r.client.Query(query)
	if err != nil {
		return nil, fmt.Errorf("overpass query failed: %w", err)
	}

	return &result, nil
}

type taggedElement struct {
	id     int64
	tags   map[string]string
	bounds *overpass.Box
}

func convertToWaterFeatures(result *overpass.Result) []model.WaterFeature {
	elements := make([]taggedElement, 0, len(result.Ways)+len(result.Relations))

	// Ways first, then relations, each ordered by id so the cache file is stable
	ways := make([]taggedElement, 0, len(result.Ways))
	for _, way := range result.Ways {
		ways = append(ways, taggedElement{id: way.ID, tags: way.Tags, bounds: way.Bounds})
	}
	sort.Slice(ways, func(i, j int) bool { return ways[i].id < ways[j].id })

	relations := make([]taggedElement, 0, len(result.Relations))
	for _, rel := range result.Relations {
		relations = append(relations, taggedElement{id: rel.ID, tags: rel.Tags, bounds: rel.Bounds})
	}
	sort.Slice(relations, func(i, j int) bool { return relations[i].id < relations[j].id })

	elements = append(elements, ways...)
	elements = append(elements, relations...)

	features := make([]model.WaterFeature, 0, len(elements))
	for _, el := range elements {
		feature, ok := toWaterFeature(el.tags, el.bounds)
		if ok {
			features = append(features, feature)
		}
	}
	return features
}

// toWaterFeature drops elements without a center or without a recognized tag combination.
func toWaterFeature(tags map[string]string, bounds *overpass.Box) (model.WaterFeature, bool) {
	if bounds == nil {
		return model.WaterFeature{}, false
	}

	waterType, ok := model.ClassifyWaterTags(tags)
	if !ok {
		return model.WaterFeature{}, false
	}

	name := tags["name"]
	if name == "" {
		name = model.DefaultWaterName
	}

	return model.WaterFeature{
		Lat:    (bounds.Min.Lat + bounds.Max.Lat) / 2,
		Lon:    (bounds.Min.Lon + bounds.Max.Lon) / 2,
		Name:   name,
		Type:   waterType,
		Source: model.WaterSourceOSMName,
	}, true
}
