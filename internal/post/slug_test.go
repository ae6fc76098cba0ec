package post

import "testing"

// TestSlugify はタイトルからのスラッグ生成を検証する。
func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "英語タイトル",
			input: "Hello World",
			want:  "hello-world",
		},
		{
			name:  "アクセント付き文字が基底文字に分解される",
			input: "Café de l'été",
			want:  "cafe-de-l-ete",
		},
		{
			name:  "アンパサンドはandに置換される",
			input: "Art & Culture",
			want:  "art-and-culture",
		},
		{
			name:  "記号の連続はハイフン1つに圧縮される",
			input: "Hello -- World!!",
			want:  "hello-world",
		},
		{
			name:  "前後の空白と記号はトリムされる",
			input: "  Hello World!  ",
			want:  "hello-world",
		},
		{
			name:  "大文字は小文字化される",
			input: "UPPERCASE Title",
			want:  "uppercase-title",
		},
		{
			name:  "数字は保持される",
			input: "Top 10 Tips",
			want:  "top-10-tips",
		},
		{
			name:  "空文字列",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSlugify_Deterministic は同一入力に同一出力を返すことを検証する。
func TestSlugify_Deterministic(t *testing.T) {
	input := "Répétition & Cohérence"
	first := Slugify(input)
	second := Slugify(input)
	if first != second {
		t.Errorf("Slugify not deterministic: %q vs %q", first, second)
	}
}
