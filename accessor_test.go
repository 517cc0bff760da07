package kbin

import (
	"bytes"
	"reflect"
	"testing"
)

func profileTree() *Node {
	root := NewNode("call")
	player := root.AddChild("player")
	player.SetAttr("id", "7")
	player.AddItem("name", Str("DJ"))
	player.AddItem("level", Str(" 12 "))
	player.AddItem("exp", Scalar(TypeU32, Uint(4200)))
	player.AddItem("pos", Vector(Type3S16, Ints(-1, 0, 1)...))
	player.AddItem("uid", Scalar(TypeU64, Uint(1<<40)))
	player.AddItem("ids", Array(TypeS64, Ints(-5, 6)...))
	player.AddItem("blob", Bin([]byte{1, 2}))
	player.AddItem("on", Bool(true))
	player.AddItem("off", Bool(false))
	root.AddChild("music").SetAttr("mid", "1")
	root.AddChild("music").SetAttr("mid", "2")
	return root
}

func TestReaderStr(t *testing.T) {
	r := NewReader(profileTree())

	tests := []struct {
		path string
		want string
	}{
		{"player.name", "DJ"},
		{"player.exp", "none"},
		{"player.missing", "none"},
		{"player.name.deeper", "none"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := r.Str(tt.path, "none"); got != tt.want {
				t.Errorf("Expected '%s', got '%s'", tt.want, got)
			}
		})
	}
}

func TestReaderNumber(t *testing.T) {
	r := NewReader(profileTree())

	tests := []struct {
		path string
		want float64
	}{
		{"player.exp", 4200},
		{"player.level", 12},
		{"player.pos", -1},
		{"player.name", -99},
		{"player.blob", -99},
		{"player.missing", -99},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := r.Number(tt.path, -99); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestReaderBool(t *testing.T) {
	r := NewReader(profileTree())

	if !r.Bool("player.on") {
		t.Error("Expected player.on to be true")
	}
	if r.Bool("player.off") {
		t.Error("Expected player.off to be false")
	}
	if r.Bool("player.missing") {
		t.Error("Expected a missing node to be false")
	}
}

func TestReaderBigInt(t *testing.T) {
	r := NewReader(profileTree())

	if got := r.BigInt("player.uid", 0); got != 1<<40 {
		t.Errorf("Expected %d, got %d", int64(1<<40), got)
	}
	if got := r.BigInt("player.level", 0); got != 12 {
		t.Errorf("Expected 12, got %d", got)
	}
	if got := r.BigInt("player.name", -1); got != -1 {
		t.Errorf("Expected default -1, got %d", got)
	}
}

func TestReaderNumbers(t *testing.T) {
	r := NewReader(profileTree())

	if got := r.Numbers("player.pos", nil); !reflect.DeepEqual(got, []float64{-1, 0, 1}) {
		t.Errorf("Expected [-1 0 1], got %v", got)
	}
	if got := r.Numbers("player.ids", nil); got != nil {
		t.Errorf("Expected 64-bit content to be refused, got %v", got)
	}
	if got := r.BigInts("player.ids", nil); !reflect.DeepEqual(got, []int64{-5, 6}) {
		t.Errorf("Expected [-5 6], got %v", got)
	}
	if got := r.BigInts("player.pos", []int64{9}); !reflect.DeepEqual(got, []int64{9}) {
		t.Errorf("Expected default [9], got %v", got)
	}
}

func TestReaderBuffer(t *testing.T) {
	r := NewReader(profileTree())

	if got := r.Buffer("player.blob", nil); !bytes.Equal(got, []byte{1, 2}) {
		t.Errorf("Expected [1 2], got %v", got)
	}
	if got := r.Buffer("player.name", []byte{0}); !bytes.Equal(got, []byte{0}) {
		t.Errorf("Expected default, got %v", got)
	}
}

func TestReaderAttrAndIndex(t *testing.T) {
	r := NewReader(profileTree())

	if id := r.Attr("player")["id"]; id != "7" {
		t.Errorf("Expected id '7', got '%s'", id)
	}
	if mid := r.Attr("music.1")["mid"]; mid != "2" {
		t.Errorf("Expected mid '2', got '%s'", mid)
	}
	if mid := r.Attr("music")["mid"]; mid != "1" {
		t.Errorf("Expected first music mid '1', got '%s'", mid)
	}
	if attrs := r.Attr("music.5"); attrs == nil || len(attrs) != 0 {
		t.Errorf("Expected empty attributes for an out of range index, got %v", attrs)
	}
	if attrs := r.Attr("player.name"); attrs == nil {
		t.Error("Expected a non-nil map for a node without attributes")
	}
}

func TestReaderElements(t *testing.T) {
	r := NewReader(profileTree())

	music := r.Elements("music")
	if len(music) != 2 {
		t.Fatalf("Expected 2 music elements, got %d", len(music))
	}
	if mid := music[1].Attr("")["mid"]; mid != "2" {
		t.Errorf("Expected mid '2', got '%s'", mid)
	}

	player := r.Element("player")
	if player == nil {
		t.Fatal("Expected player element")
	}
	if got := player.Str("name", ""); got != "DJ" {
		t.Errorf("Expected 'DJ', got '%s'", got)
	}
	if r.Element("missing") != nil {
		t.Error("Expected nil reader for a missing element")
	}
	if len(r.Elements("missing")) != 0 {
		t.Error("Expected no elements for a missing path")
	}
}

func TestReaderNil(t *testing.T) {
	r := NewReader(nil)

	if got := r.Str("a", "def"); got != "def" {
		t.Errorf("Expected default, got '%s'", got)
	}
	if !r.Content("").IsVoid() {
		t.Error("Expected void content from an empty reader")
	}

	var missing *Reader
	if missing.Node() != nil {
		t.Error("Expected nil node from a nil reader")
	}
	if got := missing.Number("a", 3); got != 3 {
		t.Errorf("Expected default 3, got %v", got)
	}
}
