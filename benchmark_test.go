package mcver

import "testing"

func BenchmarkParse(b *testing.B) {
	in := []string{"1.20.2", "25.2.1", "1.0", "26.1"}
	for i := 0; i < b.N; i++ {
		_, _ = Parse(in[i%len(in)])
	}
}

func BenchmarkHistoricalToDrop(b *testing.B) {
	v := MustParse("1.21.14")
	for i := 0; i < b.N; i++ {
		_, _ = Historical.ToDrop(v)
	}
}

func BenchmarkHistoricalToClassic(b *testing.B) {
	v := MustParse("25.2.1")
	for i := 0; i < b.N; i++ {
		_ = Historical.ToClassic(v)
	}
}

func BenchmarkCustomAliasToDrop(b *testing.B) {
	v := MustParse("1.22.3")
	for i := 0; i < b.N; i++ {
		_, _ = CustomAlias.ToDrop(v)
	}
}
