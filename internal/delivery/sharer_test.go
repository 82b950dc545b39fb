package delivery

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/pdfswift/internal/document"
)

var _ = Describe("WebhookSharer", func() {
	var (
		server   *ghttp.Server
		sharer   *WebhookSharer
		artifact *document.Artifact
		err      error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		sharer = NewWebhookSharer(server.URL()+"/share", 1024, time.Second)
		artifact = &document.Artifact{Data: []byte("%PDF-1.7 test"), Filename: "OCR_Doc_1.pdf", MimeType: document.MimeType, Pages: 1}
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("CanShare", func() {
		It("accepts artifacts within the size limit", func() {
			Expect(sharer.CanShare(artifact)).To(BeTrue())
		})

		It("rejects artifacts over the size limit", func() {
			big := artifact.WithFilename("big.pdf")
			big.Data = make([]byte, 2048)
			Expect(sharer.CanShare(big)).To(BeFalse())
		})

		It("rejects everything without a target", func() {
			Expect(NewWebhookSharer("", 0, 0).CanShare(artifact)).To(BeFalse())
		})
	})

	Describe("Share", func() {
		JustBeforeEach(func() {
			err = sharer.Share(context.Background(), artifact)
		})

		When("the target accepts the file", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.CombineHandlers(
					ghttp.VerifyRequest(http.MethodPost, "/share"),
					func(w http.ResponseWriter, r *http.Request) {
						Expect(r.ParseMultipartForm(1 << 20)).To(Succeed())
						Expect(r.FormValue("title")).To(Equal(ShareTitle))
						Expect(r.FormValue("text")).To(Equal(ShareText))

						file, header, ferr := r.FormFile("file")
						Expect(ferr).NotTo(HaveOccurred())
						defer file.Close()
						Expect(header.Filename).To(Equal("OCR_Doc_1.pdf"))
						Expect(header.Header.Get("Content-Type")).To(Equal(document.MimeType))
						data, rerr := io.ReadAll(file)
						Expect(rerr).NotTo(HaveOccurred())
						Expect(data).To(Equal([]byte("%PDF-1.7 test")))
					},
					ghttp.RespondWith(http.StatusOK, `{"status":"shared"}`),
				))
			})

			It("succeeds", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(server.ReceivedRequests()).To(HaveLen(1))
			})
		})

		When("the user dismisses the share sheet", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(StatusShareCancelled, `{"status":"cancelled","reason":"dismissed"}`))
			})

			It("returns ErrShareCancelled", func() {
				Expect(errors.Is(err, ErrShareCancelled)).To(BeTrue())
				Expect(IsCancelled(err)).To(BeTrue())
			})
		})

		When("the target reports cancellation in the body", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `{"status":"cancelled"}`))
			})

			It("returns ErrShareCancelled", func() {
				Expect(errors.Is(err, ErrShareCancelled)).To(BeTrue())
			})
		})

		When("the target fails", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(http.StatusBadGateway, "no receiver"))
			})

			It("returns a non-cancellation error", func() {
				Expect(err).To(MatchError(ContainSubstring("status 502")))
				Expect(IsCancelled(err)).To(BeFalse())
			})
		})
	})
})

var _ = Describe("Unavailable", func() {
	It("never shares", func() {
		Expect(Unavailable{}.CanShare(&document.Artifact{Data: []byte("x")})).To(BeFalse())
		Expect(Unavailable{}.Share(context.Background(), nil)).To(HaveOccurred())
	})
})
