package library

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(filepath.Join(tmpDir, "documents"))
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		var (
			name     string
			storedAs string
			err      error
		)

		BeforeEach(func() {
			name = "id_Scan_1.pdf"
		})

		JustBeforeEach(func() {
			storedAs, err = storage.Save(name, []byte("%PDF-"))
		})

		When("saving succeeds", func() {
			It("should return the stored name", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(storedAs).To(Equal(name))
			})

			It("should write the file to disk", func() {
				data, readErr := os.ReadFile(filepath.Join(tmpDir, "documents", name))
				Expect(readErr).NotTo(HaveOccurred())
				Expect(data).To(Equal([]byte("%PDF-")))
			})
		})

		When("the name escapes the storage directory", func() {
			BeforeEach(func() {
				name = "../escape.pdf"
			})

			It("should refuse it", func() {
				Expect(err).To(HaveOccurred())
				_, statErr := os.Stat(filepath.Join(tmpDir, "escape.pdf"))
				Expect(os.IsNotExist(statErr)).To(BeTrue())
			})
		})
	})

	Describe("Get and Delete", func() {
		BeforeEach(func() {
			_, err := storage.Save("a.pdf", []byte("content"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should read the file back", func() {
			data, err := storage.Get("a.pdf")
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("content")))
		})

		It("should delete the file", func() {
			Expect(storage.Delete("a.pdf")).To(Succeed())
			_, err := storage.Get("a.pdf")
			Expect(err).To(HaveOccurred())
		})

		It("should fail to delete a missing file", func() {
			Expect(storage.Delete("missing.pdf")).To(HaveOccurred())
		})

		It("should reject hidden names", func() {
			_, err := storage.Get(".hidden")
			Expect(err).To(HaveOccurred())
		})
	})
})
