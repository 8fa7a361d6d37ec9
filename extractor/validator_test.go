package extractor

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		kind Kind
		raw  string
		want Decision
	}{
		{"strict https image", ModeStrict, KindImage, "https://sns-webpic-qc.xhscdn.com/a.jpg", Accept},
		{"strict http video", ModeStrict, KindVideo, "http://sns-video-bd.xhscdn.com/v.mp4", Accept},
		{"strict empty", ModeStrict, KindImage, "", Reject},
		{"strict blank", ModeStrict, KindImage, "   ", Reject},
		{"strict data uri", ModeStrict, KindImage, "data:image/png;base64,AAAA", Reject},
		{"strict blob video", ModeStrict, KindVideo, "blob:https://www.xiaohongshu.com/1f2e", Reject},
		{"strict contains http only", ModeStrict, KindImage, "//cdn.example/x?u=http", Reject},
		{"lenient contains http", ModeLenient, KindImage, "//cdn.example/x?u=http", Accept},
		{"lenient https", ModeLenient, KindImage, "https://a/b.jpg", Accept},
		{"lenient data uri", ModeLenient, KindImage, "data:image/gif;base64,http", Reject},
		{"lenient blob video", ModeLenient, KindVideo, "blob:https://www.xiaohongshu.com/1f2e", Recover},
		{"lenient blob image", ModeLenient, KindImage, "blob:https://www.xiaohongshu.com/1f2e", Reject},
		{"lenient no scheme", ModeLenient, KindImage, "/static/logo.png", Reject},
		{"lenient blank", ModeLenient, KindVideo, "\t\n", Reject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(tt.mode, tt.kind, tt.raw); got != tt.want {
				t.Errorf("Validate(%s, %s, %q) = %s, want %s", tt.mode, tt.kind, tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"strict", ModeStrict},
		{" STRICT ", ModeStrict},
		{"lenient", ModeLenient},
		{"", ModeLenient},
		{"bogus", ModeLenient},
	}
	for _, tt := range tests {
		if got := ParseMode(tt.in, ModeLenient); got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
