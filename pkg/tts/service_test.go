package tts_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vmentor/vmentor/pkg/tts"
)

type fakeEngine struct {
	text, voice string
	err         error
}

func (e *fakeEngine) Synthesize(_ context.Context, text, voice string) (io.ReadCloser, error) {
	e.text, e.voice = text, voice
	if e.err != nil {
		return nil, e.err
	}
	return io.NopCloser(strings.NewReader("mp3:" + text)), nil
}

var _ = Describe("Service", func() {
	var (
		engine *fakeEngine
		store  *tts.Store
		svc    *tts.Service
	)

	BeforeEach(func() {
		engine = &fakeEngine{}
		var err error
		store, err = tts.NewStore(filepath.Join(GinkgoT().TempDir(), "output"))
		Expect(err).NotTo(HaveOccurred())

		svc = tts.NewService(tts.ServiceConfig{
			Engine:    engine,
			Store:     store,
			PublicURL: "http://localhost:8081/",
		})
	})

	It("stores the audio and links it under the public URL", func() {
		result, err := svc.Synthesize(context.Background(), "xin chào", "")
		Expect(err).NotTo(HaveOccurred())

		Expect(result.Text).To(Equal("xin chào"))
		Expect(result.Voice).To(Equal(tts.VoiceNamMinh))
		Expect(result.AudioFile).To(HavePrefix("http://localhost:8081/download/"))
		Expect(result.AudioFile).To(HaveSuffix(".mp3"))

		f, err := store.Open(filepath.Base(result.AudioFile))
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()
		data, _ := io.ReadAll(f)
		Expect(string(data)).To(Equal("mp3:xin chào"))
	})

	It("resolves voice aliases before calling the engine", func() {
		result, err := svc.Synthesize(context.Background(), "hello", "hoai_my")
		Expect(err).NotTo(HaveOccurred())
		Expect(engine.voice).To(Equal(tts.VoiceHoaiMy))
		Expect(result.Voice).To(Equal(tts.VoiceHoaiMy))
	})

	It("rejects blank text", func() {
		_, err := svc.Synthesize(context.Background(), "  ", "")
		Expect(err).To(MatchError(tts.ErrEmptyText))
	})

	It("fails without an engine", func() {
		noEngine := tts.NewService(tts.ServiceConfig{Store: store})
		_, err := noEngine.Synthesize(context.Background(), "hi", "")
		Expect(err).To(MatchError(tts.ErrNoEngine))
	})

	It("returns engine errors", func() {
		engine.err = errors.New("boom")
		_, err := svc.Synthesize(context.Background(), "hi", "")
		Expect(err).To(MatchError("boom"))
	})
})
