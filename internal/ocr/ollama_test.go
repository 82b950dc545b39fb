package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/pdfswift/internal/imaging"
)

var _ = Describe("Ollama engine", func() {
	var (
		server *ghttp.Server
		engine *Engine
		img    imaging.Image
		text   string
		err    error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		engine = NewEngine(NewOllamaFactory(server.URL()+"/", "llava:1.6"))
		img = imaging.Image{Width: 2, Height: 2, Format: imaging.FormatJPEG, Data: []byte("jpeg-bytes")}
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		text, err = engine.Recognize(context.Background(), img, nil)
	})

	When("the model answers", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
				ghttp.VerifyContentType("application/json"),
				func(w http.ResponseWriter, r *http.Request) {
					var req ollamaChatRequest
					Expect(decodeJSON(r, &req)).To(Succeed())
					Expect(req.Model).To(Equal("llava:1.6"))
					Expect(req.Stream).To(BeFalse())
					Expect(req.Messages).To(HaveLen(2))
					Expect(req.Messages[1].Images).To(Equal([]string{base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))}))
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
					Message: ollamaMessage{Role: "assistant", Content: "```\nReceipt #12\n```"},
					Done:    true,
				}),
			))
		})

		It("returns the transcript without fences", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Receipt #12"))
			Expect(server.ReceivedRequests()).To(HaveLen(1))
		})
	})

	When("the model returns nothing", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{Done: true}))
		})

		It("returns the placeholder", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal(NoTextPlaceholder))
		})
	})

	When("the server errors", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not found"))
		})

		It("returns an OcrFailure", func() {
			var failure *OcrFailure
			Expect(errors.As(err, &failure)).To(BeTrue())
			Expect(failure.Err).To(MatchError(ContainSubstring("model not found")))
		})
	})
})

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
