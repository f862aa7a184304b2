package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vmentor/vmentor/pkg/llm"
	vmlogger "github.com/vmentor/vmentor/pkg/logger"
	"github.com/vmentor/vmentor/pkg/storage/inmemory"
	"github.com/vmentor/vmentor/pkg/tts"
)

type stubEngine struct {
	voice string
	err   error
}

func (e *stubEngine) Synthesize(_ context.Context, text, voice string) (io.ReadCloser, error) {
	e.voice = voice
	if e.err != nil {
		return nil, e.err
	}
	return io.NopCloser(strings.NewReader("ID3" + text)), nil
}

var _ = Describe("Speech routes", func() {
	var (
		server *Server
		engine *stubEngine
		store  *tts.Store
	)

	BeforeEach(func() {
		engine = &stubEngine{}

		var err error
		store, err = tts.NewStore(filepath.Join(GinkgoT().TempDir(), "output"))
		Expect(err).NotTo(HaveOccurred())

		svc := tts.NewService(tts.ServiceConfig{
			Engine:    engine,
			Store:     store,
			PublicURL: "http://tts.local",
		})

		server, err = NewServer(Config{ListenAddr: ":0", TTS: svc}, inmemory.NewDriver(), vmlogger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	synthesize := func(body string) *tts.Result {
		resp := doRequest(server, http.MethodPost, "/synthesize/", body)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var result tts.Result
		decodeBody(resp, &result)
		return &result
	}

	Describe("POST /synthesize/", func() {
		It("stores audio and returns its download link", func() {
			result := synthesize(`{"text":"xin chào"}`)
			Expect(result.Text).To(Equal("xin chào"))
			Expect(result.Voice).To(Equal(tts.VoiceNamMinh))
			Expect(result.AudioFile).To(HavePrefix("http://tts.local/download/"))
			Expect(result.AudioFile).To(HaveSuffix(".mp3"))
		})

		It("resolves voice aliases", func() {
			result := synthesize(`{"text":"hi","voice":"hoai_my"}`)
			Expect(result.Voice).To(Equal(tts.VoiceHoaiMy))
			Expect(engine.voice).To(Equal(tts.VoiceHoaiMy))
		})

		It("rejects empty text", func() {
			resp := doRequest(server, http.MethodPost, "/synthesize/", `{"text":"  "}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("maps engine failures to 502", func() {
			engine.err = errors.Join(tts.ErrSynthesis, errors.New("engine down"))
			resp := doRequest(server, http.MethodPost, "/synthesize/", `{"text":"hi"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
		})
	})

	Describe("GET /download/:filename", func() {
		It("serves the audio as a cross-origin attachment", func() {
			name := path.Base(synthesize(`{"text":"abc"}`).AudioFile)

			resp := doRequest(server, http.MethodGet, "/download/"+name, "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("audio/mpeg"))
			Expect(resp.Header.Get("Content-Disposition")).To(ContainSubstring(name))
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
			Expect(resp.Header.Get("Cross-Origin-Resource-Policy")).To(Equal("cross-origin"))

			defer resp.Body.Close()
			raw, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(raw)).To(Equal("ID3abc"))
		})

		It("returns 404 for a missing file", func() {
			resp := doRequest(server, http.MethodGet, "/download/missing.mp3", "")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))

			var body llm.ErrorResponse
			decodeBody(resp, &body)
			Expect(body.Error).To(Equal("File not found"))
		})

		It("rejects hidden file names", func() {
			resp := doRequest(server, http.MethodGet, "/download/.secret", "")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("DELETE /delete/:filename", func() {
		It("removes the file", func() {
			name := path.Base(synthesize(`{"text":"abc"}`).AudioFile)

			resp := doRequest(server, http.MethodDelete, "/delete/"+name, "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body DeleteAudioResponse
			decodeBody(resp, &body)
			Expect(body.Message).To(Equal(name + " deleted"))

			_, err := os.Stat(filepath.Join(store.Dir(), name))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})

		It("returns 404 for a missing file", func() {
			resp := doRequest(server, http.MethodDelete, "/delete/missing.mp3", "")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})
})
