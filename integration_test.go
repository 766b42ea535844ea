package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"sjsage522/bilisentiment/config"
	"sjsage522/bilisentiment/internal/crawler"
	"sjsage522/bilisentiment/internal/sentiment"
	"sjsage522/bilisentiment/internal/text"
	"sjsage522/bilisentiment/services/worker"
)

func danmakuSegment(texts ...string) []byte {
	var out []byte
	for _, t := range texts {
		var elem []byte
		elem = protowire.AppendTag(elem, 7, protowire.BytesType)
		elem = protowire.AppendString(elem, t)
		out = protowire.AppendTag(out, 1, protowire.BytesType)
		out = protowire.AppendBytes(out, elem)
	}
	return out
}

// fakeBilibili serves a two-window video with two comment pages
func fakeBilibili(t *testing.T) *httptest.Server {
	windows := map[string][]string{
		"1": {"开场好看", "前排 支持"},
		"2": {"中间有点无聊", "画面 好看"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/x/web-interface/view", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BV1it", r.URL.Query().Get("bvid"))
		w.Write([]byte(`{"code":0,"data":{"bvid":"BV1it","aid":99,"title":"集成测试",
			"pages":[{"page":1,"cid":1001,"duration":700,"part":"正片"}]}}`))
	})
	mux.HandleFunc("/x/v2/dm/web/seg.so", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1001", r.URL.Query().Get("oid"))
		w.Write(danmakuSegment(windows[r.URL.Query().Get("segment_index")]...))
	})
	mux.HandleFunc("/x/v2/reply/main", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "99", r.URL.Query().Get("oid"))
		page, _ := strconv.Atoi(r.URL.Query().Get("next"))
		switch page {
		case 1:
			w.Write([]byte(`{"code":0,"data":{"cursor":{"is_end":false,"all_count":3},"replies":[
				{"rpid":1,"content":{"message":"太喜欢了 支持"},"replies":[{"rpid":2,"content":{"message":"同感 喜欢"}}]}]}}`))
		case 2:
			w.Write([]byte(`{"code":0,"data":{"cursor":{"is_end":false,"all_count":3},"replies":[
				{"rpid":2,"content":{"message":"同感 喜欢"}},{"rpid":3,"content":{"message":"剧情 垃圾"}}]}}`))
		default:
			t.Errorf("unexpected comment page %d", page)
			w.Write([]byte(`{"code":0,"data":{"cursor":{"is_end":true,"all_count":3},"replies":[]}}`))
		}
	})
	return httptest.NewServer(mux)
}

func testConfig(t *testing.T, server *httptest.Server) *config.Config {
	dir := t.TempDir()
	segments := filepath.Join(dir, "segments.csv")
	require.NoError(t, os.WriteFile(segments, []byte("name,page,range\n开场,1,00:00-06:00\n中段,1,06:00-11:40\n坏行,1,05:00-04:00\n番外,2,00:00-01:00\n"), 0o644))

	cfg := config.LoadConfig()
	cfg.BVID = "BV1it"
	cfg.SegmentsFile = segments
	cfg.APIBase = server.URL
	cfg.CommentBase = server.URL
	cfg.PacingMin, cfg.PacingMax, cfg.CommentPacing = 0, 0, 0
	cfg.RetryMaxAttempts = 1
	cfg.MemcacheAddr, cfg.RedisAddr = "", ""
	cfg.OutputDir = filepath.Join(dir, "out")
	cfg.ErrorLogFile = filepath.Join(dir, "error.log")
	cfg.TopN = 3
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestPipelineEndToEnd(t *testing.T) {
	server := fakeBilibili(t)
	defer server.Close()

	cfg := testConfig(t, server)
	w, err := buildWorker(cfg, &Services{}, text.Whitespace)
	require.NoError(t, err)

	report, err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "集成测试", report.Title)
	assert.Equal(t, crawler.StopTotalReached, report.CommentStop)
	assert.Equal(t, 2, report.CommentPages)

	opening, ok := report.Scope("开场")
	require.True(t, ok)
	assert.Equal(t, []string{"开场好看", "前排 支持"}, opening.Texts)
	assert.Equal(t, 2, opening.Tally.Counts[sentiment.Positive])

	middle, ok := report.Scope("中段")
	require.True(t, ok)
	assert.Equal(t, []string{"中间有点无聊", "画面 好看"}, middle.Texts)

	// invalid range falls back to the whole track
	broken, ok := report.Scope("坏行")
	require.True(t, ok)
	assert.Len(t, broken.Texts, 4)
	require.Len(t, report.Rejections, 1)
	assert.Equal(t, "坏行", report.Rejections[0].Name)

	// page 2 does not exist
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "番外", report.Skipped[0].Name)

	comments, ok := report.Scope(worker.CommentsScope)
	require.True(t, ok)
	assert.Equal(t, []string{"太喜欢了 支持", "同感 喜欢", "剧情 垃圾"}, comments.Texts)
	assert.Equal(t, 1, comments.Tally.Counts[sentiment.Negative])

	overall, ok := report.Scope(worker.OverallScope)
	require.True(t, ok)
	assert.Equal(t, 2+2+4+3, overall.Tally.Total)

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "BV1it_report.json"))
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "BV1it", decoded["bvid"])

	diag, err := os.ReadFile(cfg.ErrorLogFile)
	require.NoError(t, err)
	assert.Contains(t, string(diag), "segment:番外")
}

func TestPipelineContentMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":-404,"message":"啥都木有"}`))
	}))
	defer server.Close()

	cfg := testConfig(t, server)
	w, err := buildWorker(cfg, &Services{}, text.Whitespace)
	require.NoError(t, err)

	_, err = w.Run(context.Background())
	assert.Error(t, err)
}

func TestBuildWorkerRejectsMissingSegmentsFile(t *testing.T) {
	server := fakeBilibili(t)
	defer server.Close()

	cfg := testConfig(t, server)
	cfg.SegmentsFile = filepath.Join(t.TempDir(), "missing.csv")

	_, err := buildWorker(cfg, &Services{}, text.Whitespace)
	assert.Error(t, err)
}

func TestSessionCookie(t *testing.T) {
	cfg := &config.Config{SessData: "abc"}
	assert.Equal(t, "SESSDATA=abc", sessionCookie(cfg))

	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"SESSDATA","value":"fromfile"}]`), 0o600))
	cfg.CookieFile = path
	assert.Equal(t, "SESSDATA=fromfile", sessionCookie(cfg))

	cfg.CookieFile = filepath.Join(t.TempDir(), "missing.json")
	assert.Equal(t, "SESSDATA=abc", sessionCookie(cfg))
}
