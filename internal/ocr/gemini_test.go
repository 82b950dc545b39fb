package ocr

import (
	"context"

	"github.com/google/generative-ai-go/genai"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("GeminiFactory", func() {
	It("requires an api key", func() {
		_, err := NewGeminiFactory("", "")
		Expect(err).To(MatchError(ContainSubstring("api key")))
	})

	It("defaults the model", func() {
		factory, err := NewGeminiFactory("test-key", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(factory.model).To(Equal(DefaultGeminiModel))
		Expect(factory.Name()).To(Equal("gemini"))
	})

	It("gives each worker a system instruction naming the language", func() {
		factory, err := NewGeminiFactory("test-key", "")
		Expect(err).NotTo(HaveOccurred())

		worker, err := factory.NewWorker(context.Background(), "deu")
		Expect(err).NotTo(HaveOccurred())
		defer worker.Terminate()

		gw, ok := worker.(*geminiWorker)
		Expect(ok).To(BeTrue())
		Expect(gw.model.SystemInstruction).NotTo(BeNil())
		Expect(gw.model.SystemInstruction.Parts).To(HaveLen(1))
		Expect(gw.model.SystemInstruction.Parts[0]).To(Equal(genai.Text("You are an OCR engine. The document language is deu.")))
	})
})
