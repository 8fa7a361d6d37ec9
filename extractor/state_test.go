package extractor

import (
	"reflect"
	"testing"
)

func mustState(t *testing.T, raw string) *PageState {
	t.Helper()
	st, err := ParseState([]byte(nullUndefined(raw)))
	if err != nil {
		t.Fatalf("ParseState: %v", err)
	}
	return st
}

func TestDirectVideo_OriginVideoKey(t *testing.T) {
	st := mustState(t, `{"note":{"noteDetailMap":{"abc123":{"note":{"video":{"consumer":{"originVideoKey":"X"}}}}}}}`)

	got, ok := DirectVideo(st, NoteID("/explore/abc123", []string{"explore"}), DefaultVideoCDNBase)
	if !ok {
		t.Fatal("expected direct video to resolve")
	}
	if want := "https://sns-video-bd.xhscdn.com/X"; got != want {
		t.Errorf("DirectVideo = %q, want %q", got, want)
	}
}

func TestDirectVideo_MediaStreamFallback(t *testing.T) {
	st := mustState(t, `{"note":{"noteDetailMap":{"n1":{"note":{"video":{"consumer":{},
		"media":{"stream":{"h264":[{"masterUrl":"https://v/1.mp4"},{"masterUrl":"https://v/2.mp4"}]}}}}}}}}`)

	got, ok := DirectVideo(st, "n1", DefaultVideoCDNBase)
	if !ok || got != "https://v/1.mp4" {
		t.Errorf("DirectVideo = (%q, %v), want (https://v/1.mp4, true)", got, ok)
	}
}

func TestDirectVideo_WrongNote(t *testing.T) {
	st := mustState(t, `{"note":{"noteDetailMap":{"other":{"note":{"video":{"consumer":{"originVideoKey":"X"}}}}}}}`)
	if got, ok := DirectVideo(st, "abc123", DefaultVideoCDNBase); ok {
		t.Errorf("DirectVideo for absent note = %q, want not found", got)
	}
}

func TestDirectVideo_StreamVariantForms(t *testing.T) {
	tests := []struct {
		name string
		h264 string
		want string
	}{
		{"url key", `[{"url":"https://v/u.mp4"}]`, "https://v/u.mp4"},
		{"masterUrl preferred", `[{"masterUrl":"https://v/m.mp4","url":"https://v/u.mp4"}]`, "https://v/m.mp4"},
		{"plain string", `["https://v/s.mp4"]`, "https://v/s.mp4"},
		{"empty entry", `[{}]`, ""},
		{"empty string", `[""]`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := mustState(t, `{"note":{"noteDetailMap":{"n1":{"note":{"video":{"media":{"stream":{"h264":`+tt.h264+`}}},
				"imageList":[{"stream":{"h264":`+tt.h264+`}}]}}}}}`)

			got, ok := DirectVideo(st, "n1", DefaultVideoCDNBase)
			if got != tt.want || ok != (tt.want != "") {
				t.Errorf("DirectVideo = (%q, %v), want %q", got, ok, tt.want)
			}
			wantLive := []string{}
			if tt.want != "" {
				wantLive = []string{tt.want}
			}
			if live := LivePhotos(st, "n1"); !reflect.DeepEqual(live, wantLive) {
				t.Errorf("LivePhotos = %v, want %v", live, wantLive)
			}
		})
	}
}

func TestLivePhotos_Order(t *testing.T) {
	st := mustState(t, `{"note":{"noteDetailMap":{"abc123":{"note":{"imageList":[
		{"stream":{"h264":[{"masterUrl":"U1"}]}},
		{"stream":{"h264":[{"masterUrl":"U2"}]}}
	]}}}}}`)

	got := LivePhotos(st, "abc123")
	if want := []string{"U1", "U2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("LivePhotos = %v, want %v", got, want)
	}
}

func TestLivePhotos_SkipsStillsAndRepeats(t *testing.T) {
	st := mustState(t, `{"note":{"noteDetailMap":{"n":{"note":{"imageList":[
		{"urlDefault":"https://img/still.jpg","stream":{}},
		{"stream":{"h264":[{"masterUrl":"U1"}]}},
		{"stream":{"h264":[]}},
		"not-an-object",
		{"stream":{"h264":[{"masterUrl":"U1"}]}},
		{"stream":{"h264":[{"masterUrl":"U3"},{"masterUrl":"U4"}]}},
		{"stream":undefined}
	]}}}}}`)

	got := LivePhotos(st, "n")
	if want := []string{"U1", "U3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("LivePhotos = %v, want %v", got, want)
	}
}

func TestNavigation_MissingKeys(t *testing.T) {
	states := map[string]string{
		"no noteDetailMap":    `{"note":{}}`,
		"no note":             `{"user":{}}`,
		"null map":            `{"note":{"noteDetailMap":null}}`,
		"map wrong type":      `{"note":{"noteDetailMap":[1,2,3]}}`,
		"entry without note":  `{"note":{"noteDetailMap":{"abc123":{}}}}`,
		"video wrong type":    `{"note":{"noteDetailMap":{"abc123":{"note":{"video":"x","imageList":{}}}}}}`,
		"consumer null":       `{"note":{"noteDetailMap":{"abc123":{"note":{"video":{"consumer":null}}}}}}`,
		"imageList undefined": `{"note":{"noteDetailMap":{"abc123":{"note":{"imageList":undefined}}}}}`,
	}

	for name, raw := range states {
		t.Run(name, func(t *testing.T) {
			st := mustState(t, raw)
			if got, ok := DirectVideo(st, "abc123", DefaultVideoCDNBase); ok {
				t.Errorf("DirectVideo = %q, want not found", got)
			}
			if got := LivePhotos(st, "abc123"); got == nil || len(got) != 0 {
				t.Errorf("LivePhotos = %#v, want empty non-nil", got)
			}
		})
	}
}

func TestNavigation_NilState(t *testing.T) {
	if _, ok := DirectVideo(nil, "abc123", DefaultVideoCDNBase); ok {
		t.Error("nil state should not resolve")
	}
	if got := LivePhotos(nil, "abc123"); len(got) != 0 {
		t.Errorf("LivePhotos(nil) = %v", got)
	}
}

func TestParseState(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"empty", "", true},
		{"null", "null", true},
		{"garbage", "{not json", true},
		{"bare undefined", `{"note":{"a":undefined}}`, true},
		{"plain", `{"note":{}}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseState([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseState(%q) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}

func TestNoteID(t *testing.T) {
	markers := []string{"explore", "item"}
	tests := []struct {
		path string
		want string
	}{
		{"/explore/abc123", "abc123"},
		{"/explore/abc123?xsec_token=t&xsec_source=pc_feed", "abc123"},
		{"/explore/abc123#comments", "abc123"},
		{"/explore/abc123/", "abc123"},
		{"/discovery/item/66f0a1b2c3", "66f0a1b2c3"},
		{"https://www.xiaohongshu.com/explore/6650e2f7000000001e02d41c?source=x", "6650e2f7000000001e02d41c"},
		{"/explore", ""},
		{"/explore/", ""},
		{"/user/profile/5a", ""},
		{"/user/profile/5a/", ""},
		{"/user/profile/5f1a2b/66aa77bb", "66aa77bb"},
		{"https://www.xiaohongshu.com/user/profile/5f1a2b/66aa77bb?xsec_token=1", "66aa77bb"},
		{"/profile/5f1a2b/66aa77bb", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NoteID(tt.path, markers); got != tt.want {
			t.Errorf("NoteID(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestNullUndefined(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":undefined}`, `{"a":null}`},
		{`{"a": undefined,"b":[undefined, undefined]}`, `{"a": null,"b":[null, null]}`},
		{`{"u":"https://v/a?x=1,undefined"}`, `{"u":"https://v/a?x=1,undefined"}`},
		{`{"u":"say \":undefined"}`, `{"u":"say \":undefined"}`},
		{`{"a":undefinedValue}`, `{"a":undefinedValue}`},
		{`{"undefined":1}`, `{"undefined":1}`},
		{`{"plain":1}`, `{"plain":1}`},
	}
	for _, tt := range tests {
		if got := nullUndefined(tt.in); got != tt.want {
			t.Errorf("nullUndefined(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
