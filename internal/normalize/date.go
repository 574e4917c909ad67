package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout: kanonik tarih formatı
const DateLayout = "2006-01-02"

var epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// Tanınan metin formatları, denenme sırasıyla
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 -0700 MST",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02.01.2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"20060102",
}

// Date ham bir tarih değerini YYYY-MM-DD'ye çevirir. Çözülemeyen değerler için "" döner.
// Tamsayılar 1970-01-01'den itibaren gün sayısı (epoch-day) olarak yorumlanır.
func Date(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return dateFromString(v)
	case []byte:
		return dateFromString(string(v))
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(DateLayout)
	case *time.Time:
		if v == nil {
			return ""
		}
		return Date(*v)
	case json.Number:
		return dateFromString(v.String())
	case int:
		return fromEpochDay(int64(v))
	case int32:
		return fromEpochDay(int64(v))
	case int64:
		return fromEpochDay(v)
	case uint:
		return fromEpochDay(int64(v))
	case uint32:
		return fromEpochDay(int64(v))
	case uint64:
		if v > math.MaxInt32 {
			return ""
		}
		return fromEpochDay(int64(v))
	case float32:
		return dateFromFloat(float64(v))
	case float64:
		return dateFromFloat(v)
	}
	return ""
}

func dateFromString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	// Kanonik değer: yalnızca geçerliliğini kontrol et
	if len(s) == len(DateLayout) {
		if t, err := time.Parse(DateLayout, s); err == nil {
			return t.Format(DateLayout)
		}
	}

	// Sadece rakamlardan oluşan kısa metin epoch-day kabul edilir ("19723")
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && len(s) < 8 {
		return fromEpochDay(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && len(s) < 8 {
		return dateFromFloat(f)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout)
		}
	}
	return ""
}

func dateFromFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return ""
	}
	return fromEpochDay(int64(f))
}

// Makul aralık dışındaki gün sayıları (ör. milisaniye timestamp) reddedilir.
func fromEpochDay(days int64) string {
	if days < 0 || days > 2932896 { // 9999-12-31
		return ""
	}
	return epoch.AddDate(0, 0, int(days)).Format(DateLayout)
}

// EpochDay kanonik tarihi gün sayısına çevirir; geçersizse ok=false.
func EpochDay(date string) (int64, bool) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, false
	}
	return int64(t.Sub(epoch).Hours() / 24), true
}
