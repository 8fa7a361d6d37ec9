package extractor

import (
	"reflect"
	"testing"
)

func TestExtractLinks(t *testing.T) {
	text := `82 看看这篇笔记 http://xhslink.com/a/Ab3dE9，复制本条信息，打开【小红书】App查看精彩内容！
也可以直接打开 www.xiaohongshu.com/explore/6650e2f7000000001e02d41c?xsec_token=AB12 或者
https://www.xiaohongshu.com/discovery/item/66f0a1b2c3 再来一次 http://xhslink.com/a/Ab3dE9`

	want := []string{
		"http://xhslink.com/a/Ab3dE9",
		"https://www.xiaohongshu.com/explore/6650e2f7000000001e02d41c?xsec_token=AB12",
		"https://www.xiaohongshu.com/discovery/item/66f0a1b2c3",
	}
	if got := ExtractLinks(text); !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractLinks =\n%v\nwant\n%v", got, want)
	}
}

func TestExtractLinks_UserProfile(t *testing.T) {
	got := ExtractLinks("see https://www.xiaohongshu.com/user/profile/5f1a2b/66aa77bb?xsec=1 now, not xiaohongshu.com/user/profile/5f1a2b")
	want := []string{"https://www.xiaohongshu.com/user/profile/5f1a2b/66aa77bb?xsec=1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractLinks = %v, want %v", got, want)
	}
}

func TestExtractLinks_None(t *testing.T) {
	got := ExtractLinks("no links here https://example.com/explore/abc")
	if got == nil || len(got) != 0 {
		t.Errorf("ExtractLinks = %#v, want empty", got)
	}
}

func TestOriginalImageURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"webpic rendition",
			"http://sns-webpic-qc.xhscdn.com/202404121854/a7e6fa93538d17fa5da39ed6195557d7/1040g2sg312abc!nd_dft_wlteh_webp_3",
			"https://ci.xiaohongshu.com/1040g2sg312abc",
		},
		{
			"nested token with query",
			"https://sns-webpic-qc.xhscdn.com/202404121854/hash/spectrum/1040g0k0?imageView2/2/w/1080",
			"https://ci.xiaohongshu.com/spectrum/1040g0k0",
		},
		{
			"video untouched",
			"https://sns-video-bd.xhscdn.com/pre_post/1040g2t0",
			"https://sns-video-bd.xhscdn.com/pre_post/1040g2t0",
		},
		{
			"short path untouched",
			"https://sns-img-qc.xhscdn.com/abc",
			"https://sns-img-qc.xhscdn.com/abc",
		},
		{
			"foreign host untouched",
			"https://example.com/a/b/c/d/e",
			"https://example.com/a/b/c/d/e",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OriginalImageURL(tt.in); got != tt.want {
				t.Errorf("OriginalImageURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
