package library

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var (
		db  *BoltDB
		doc *Document
	)

	BeforeEach(func() {
		var err error
		db, err = NewBoltDB(filepath.Join(GinkgoT().TempDir(), "test.db"))
		Expect(err).NotTo(HaveOccurred())

		doc = &Document{
			ID:        "doc-1",
			Filename:  "Scan_1.pdf",
			StoredAs:  "doc-1_Scan_1.pdf",
			Size:      1024,
			Pages:     3,
			MimeType:  "application/pdf",
			CreatedAt: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		}
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	It("round-trips a document", func() {
		Expect(db.SaveDocument(doc)).To(Succeed())

		got, err := db.GetDocument("doc-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(doc))
	})

	It("lists saved documents", func() {
		Expect(db.SaveDocument(doc)).To(Succeed())
		second := *doc
		second.ID = "doc-2"
		Expect(db.SaveDocument(&second)).To(Succeed())

		docs, err := db.ListDocuments()
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(2))
	})

	It("returns an empty list when nothing is saved", func() {
		docs, err := db.ListDocuments()
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(BeEmpty())
	})

	It("returns ErrNotFound for unknown documents", func() {
		_, err := db.GetDocument("missing")
		Expect(err).To(MatchError(ErrNotFound))
		Expect(db.DeleteDocument("missing")).To(MatchError(ErrNotFound))
	})

	It("deletes documents", func() {
		Expect(db.SaveDocument(doc)).To(Succeed())
		Expect(db.DeleteDocument("doc-1")).To(Succeed())
		_, err := db.GetDocument("doc-1")
		Expect(err).To(MatchError(ErrNotFound))
	})
})
