package pipeline

import (
	"encoding/binary"
	"sort"

	"restoran-analytics/internal/domain"

	"github.com/cespare/xxhash/v2"
)

// keyBuilder türetme düğümleri için bağımlılık anahtarı üretir.
type keyBuilder struct {
	d *xxhash.Digest
}

func newKey(node string) *keyBuilder {
	k := &keyBuilder{d: xxhash.New()}
	return k.str(node)
}

func (k *keyBuilder) str(s string) *keyBuilder {
	_, _ = k.d.WriteString(s)
	_, _ = k.d.Write([]byte{0})
	return k
}

func (k *keyBuilder) u64(v uint64) *keyBuilder {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = k.d.Write(buf[:])
	return k
}

// filter seçicileri sıralı yazar; "hepsi" ile boş olmayan küme ayrışır.
func (k *keyBuilder) filter(st domain.FilterState) *keyBuilder {
	k.str(st.Start).str(st.End)

	if st.Locations.IsAll() {
		k.str("*")
	} else {
		ids := st.Locations.Values()
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		k.u64(uint64(len(ids)))
		for _, id := range ids {
			k.u64(uint64(id))
		}
	}
	k.strings(selectorStrings(st.Categories))
	k.strings(selectorStrings(st.OrderTypes))
	return k
}

func (k *keyBuilder) strings(vals []string) *keyBuilder {
	if vals == nil {
		return k.str("*")
	}
	k.u64(uint64(len(vals)))
	for _, v := range vals {
		k.str(v)
	}
	return k
}

func (k *keyBuilder) sum() uint64 {
	return k.d.Sum64()
}

func selectorStrings[T ~string](s domain.Selector[T]) []string {
	if s.IsAll() {
		return nil
	}
	out := make([]string, 0)
	for _, v := range s.Values() {
		out = append(out, string(v))
	}
	sort.Strings(out)
	return out
}
