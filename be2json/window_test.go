package be2json

import (
	"bytes"
	"testing"
)

func TestWindow(t *testing.T) {
	tests := []struct {
		name  string
		size  int
		input []string
		want  string
	}{
		{"empty", 4, nil, ""},
		{"partial", 4, []string{"ab"}, "ab"},
		{"exact", 4, []string{"abcd"}, "abcd"},
		{"wrap", 4, []string{"abcdef"}, "cdef"},
		{"wrap in pieces", 4, []string{"ab", "cde", "f"}, "cdef"},
		{"long write", 3, []string{"x", "0123456789"}, "789"},
		{"disabled", 0, []string{"abc"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWindow(tt.size)
			for _, s := range tt.input {
				w.write([]byte(s))
			}
			if got := w.bytes(); string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWindow_BytesIsCopy(t *testing.T) {
	w := newWindow(4)
	w.write([]byte("abcd"))
	got := w.bytes()
	w.add('z')
	if !bytes.Equal(got, []byte("abcd")) {
		t.Errorf("snapshot changed to %q", got)
	}
	if string(w.bytes()) != "bcdz" {
		t.Errorf("got %q, want %q", w.bytes(), "bcdz")
	}
}
