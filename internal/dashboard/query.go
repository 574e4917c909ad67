package dashboard

import (
	"strconv"
	"strings"

	"restoran-analytics/internal/aggregate"
	"restoran-analytics/internal/auth"
	"restoran-analytics/internal/domain"
	"restoran-analytics/internal/normalize"
	"restoran-analytics/internal/pipeline"
	"restoran-analytics/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// FilterQuery: tüm dashboard uçlarında ortak sorgu parametreleri
// GET ...?start=2024-01-01&end=2024-01-31&locations=1,2&categories=produce&order_types=delivery&refresh=true
type FilterQuery struct {
	Start      string `query:"start"`
	End        string `query:"end"`
	Locations  string `query:"locations"`
	Categories string `query:"categories"`
	OrderTypes string `query:"order_types"`
	Refresh    bool   `query:"refresh"`
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseIDs virgülle ayrılmış şube kimliklerini çözer; tekrarlar atılır.
func parseIDs(param, s string) ([]uint, error) {
	var ids []uint
	seen := map[uint]bool{}
	for _, p := range splitList(s) {
		id, err := strconv.ParseUint(p, 10, 32)
		if err != nil || id == 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, param+" geçersiz: "+p)
		}
		if !seen[uint(id)] {
			seen[uint(id)] = true
			ids = append(ids, uint(id))
		}
	}
	return ids, nil
}

func parseDate(param, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	d := normalize.Date(raw)
	if d == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, param+" geçerli bir tarih olmalı (YYYY-MM-DD)")
	}
	return d, nil
}

// State sorguyu filtre durumuna çevirir. Şube admini her zaman kendi şubesiyle sınırlanır;
// başka bir şube isterse 403 döner.
func (q FilterQuery) State(scope auth.Scope) (domain.FilterState, error) {
	var st domain.FilterState
	var err error

	if st.Start, err = parseDate("start", q.Start); err != nil {
		return st, err
	}
	if st.End, err = parseDate("end", q.End); err != nil {
		return st, err
	}

	ids, err := parseIDs("locations", q.Locations)
	if err != nil {
		return st, err
	}
	switch {
	case !scope.All():
		for _, id := range ids {
			if !scope.Allows(id) {
				return st, fiber.NewError(fiber.StatusForbidden, "Bu şubenin verisini görme yetkiniz yok")
			}
		}
		st.Locations = domain.Only(scope.LocationID)
	case len(ids) > 0:
		st.Locations = domain.Only(ids...)
	default:
		st.Locations = domain.All[uint]()
	}

	st.Categories = domain.All[domain.Category]()
	if list := splitList(q.Categories); len(list) > 0 {
		cats := make([]domain.Category, 0, len(list))
		for _, raw := range list {
			cat := normalize.Category(raw)
			if cat == "" {
				return st, fiber.NewError(fiber.StatusBadRequest, "Bilinmeyen kategori: "+raw)
			}
			cats = append(cats, cat)
		}
		st.Categories = domain.Only(cats...)
	}

	st.OrderTypes = domain.All[domain.OrderType]()
	if list := splitList(q.OrderTypes); len(list) > 0 {
		types := make([]domain.OrderType, 0, len(list))
		for _, raw := range list {
			ot := normalize.OrderType(raw)
			if ot == "" {
				return st, fiber.NewError(fiber.StatusBadRequest, "Bilinmeyen sipariş tipi: "+raw)
			}
			types = append(types, ot)
		}
		st.OrderTypes = domain.Only(types...)
	}

	return st, nil
}

// requestFrom kullanıcı kapsamını ve filtreyi okuyup motor isteğini kurar.
func requestFrom(c *fiber.Ctx) (pipeline.Request, auth.Scope, error) {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return pipeline.Request{}, scope, err
	}

	var q FilterQuery
	if err := c.QueryParser(&q); err != nil {
		return pipeline.Request{}, scope, fiber.NewError(fiber.StatusBadRequest, "Geçersiz sorgu parametreleri")
	}
	st, err := q.State(scope)
	if err != nil {
		return pipeline.Request{}, scope, err
	}

	return pipeline.Request{UserID: scope.UserID, Filter: st, Refresh: q.Refresh}, scope, nil
}

// CompareQuery: /compare için ek parametreler
type CompareQuery struct {
	IDs    string `query:"ids" validate:"required"`
	Metric string `query:"metric" validate:"omitempty,oneof=revenue orders received used wasted waste_cost rating"`
	Split  string `query:"split" validate:"omitempty,oneof=category order_type"`
}

func (q CompareQuery) Request(scope auth.Scope) (pipeline.CompareRequest, error) {
	if err := validation.Struct(q); err != nil {
		return pipeline.CompareRequest{}, err
	}
	ids, err := parseIDs("ids", q.IDs)
	if err != nil {
		return pipeline.CompareRequest{}, err
	}
	for _, id := range ids {
		if !scope.Allows(id) {
			return pipeline.CompareRequest{}, fiber.NewError(fiber.StatusForbidden, "Bu şubenin verisini görme yetkiniz yok")
		}
	}

	metric := aggregate.Revenue
	if q.Metric != "" {
		metric = aggregate.Field(q.Metric)
	}
	return pipeline.CompareRequest{IDs: ids, Metric: metric, Split: q.Split}, nil
}
