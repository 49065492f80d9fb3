package ledger

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/ledgerlite/ledgerlite/internal/ocr"
)

var _ = ginkgo.Describe("Server", func() {
	var (
		db          *mockDB
		storage     *mockStorage
		processor   *mockProcessor
		service     *Service
		server      *Server
		auth        BasicAuth
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		server = NewServerWithMux(service, auth, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	seed := func(ownerID, id string, kind Kind, category Category, cents int64, day int) {
		t := &Transaction{
			ID:          id,
			OwnerID:     ownerID,
			Kind:        kind,
			AmountCents: cents,
			Description: "seed",
			Category:    category,
			OccurredAt:  time.Date(2025, 5, day, 0, 0, 0, 0, time.UTC),
			Status:      Pending,
		}
		Expect(db.SaveTransaction(t)).To(Succeed())
	}

	ginkgo.BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		processor = newMockProcessor()
		service = NewServiceWithDeps(db, processor, storage, &mockIDGenerator{id: "test-id-123"}, &mockTimeSource{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)})
		auth = BasicAuth{}
		setupServer()
	})

	ginkgo.AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	ginkgo.Describe("handleCreateTransaction", func() {
		post := func(body string) *http.Response {
			resp, err := http.Post(ghttpServer.URL()+"/api/transactions", "application/json", strings.NewReader(body))
			Expect(err).NotTo(HaveOccurred())
			return resp
		}

		ginkgo.When("the input is valid", func() {
			ginkgo.It("returns the created record", func() {
				resp := post(`{"kind":"income","amount_cents":150000,"description":"April invoices","category":"sales","occurred_at":"2025-04-30T00:00:00Z"}`)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var transaction Transaction
				Expect(json.NewDecoder(resp.Body).Decode(&transaction)).To(Succeed())
				Expect(transaction.ID).To(Equal("test-id-123"))
				Expect(transaction.OwnerID).To(Equal("default"))
				Expect(transaction.Status).To(Equal(Pending))
			})
		})

		ginkgo.When("the input fails validation", func() {
			ginkgo.It("returns 400 with the violated field", func() {
				resp := post(`{"kind":"income","amount_cents":-5,"description":"x","category":"sales"}`)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

				body, _ := io.ReadAll(resp.Body)
				Expect(string(body)).To(ContainSubstring("amount_cents"))
			})
		})

		ginkgo.When("the body is not JSON", func() {
			ginkgo.It("returns 400", func() {
				resp := post(`not json`)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})
	})

	ginkgo.Describe("handleListTransactions", func() {
		ginkgo.BeforeEach(func() {
			seed("default", "t1", Expense, Rent, 80000, 1)
			seed("default", "t2", Income, Sales, 150000, 2)
		})

		ginkgo.It("returns all of the owner's records as JSON", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/transactions")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))

			var transactions []*Transaction
			Expect(json.NewDecoder(resp.Body).Decode(&transactions)).To(Succeed())
			Expect(transactions).To(HaveLen(2))
		})
	})

	ginkgo.Describe("handleGetTransaction", func() {
		ginkgo.BeforeEach(func() {
			seed("default", "t1", Expense, Rent, 80000, 1)
		})

		ginkgo.It("returns the record", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/transactions/t1")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		ginkgo.It("returns 404 for an unknown id", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/transactions/nope")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	ginkgo.Describe("handleUpdateTransaction", func() {
		ginkgo.BeforeEach(func() {
			seed("default", "t1", Expense, Other, 4250, 1)
		})

		ginkgo.It("applies the edit", func() {
			body := `{"kind":"expense","amount_cents":4299,"description":"corrected","category":"inventory","occurred_at":"2025-05-01T00:00:00Z"}`
			req, err := http.NewRequest("PUT", ghttpServer.URL()+"/api/transactions/t1", strings.NewReader(body))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var transaction Transaction
			Expect(json.NewDecoder(resp.Body).Decode(&transaction)).To(Succeed())
			Expect(transaction.AmountCents).To(Equal(int64(4299)))
			Expect(transaction.Category).To(Equal(Inventory))
		})
	})

	ginkgo.Describe("handleUpdateStatus", func() {
		ginkgo.BeforeEach(func() {
			seed("default", "t1", Expense, Other, 4250, 1)
		})

		ginkgo.It("moves the record to verified", func() {
			req, err := http.NewRequest("PUT", ghttpServer.URL()+"/api/transactions/t1/status", strings.NewReader(`{"status":"verified"}`))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var transaction Transaction
			Expect(json.NewDecoder(resp.Body).Decode(&transaction)).To(Succeed())
			Expect(transaction.Status).To(Equal(Verified))
		})
	})

	ginkgo.Describe("handleDeleteTransaction", func() {
		ginkgo.BeforeEach(func() {
			seed("default", "t1", Expense, Other, 4250, 1)
		})

		ginkgo.It("returns 204 and removes the record", func() {
			req, err := http.NewRequest("DELETE", ghttpServer.URL()+"/api/transactions/t1", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(db.transactions["default"]).To(BeEmpty())
		})
	})

	ginkgo.Describe("handleUploadReceipt", func() {
		upload := func(fieldName string, data []byte) *http.Response {
			var buf bytes.Buffer
			writer := multipart.NewWriter(&buf)
			part, err := writer.CreateFormFile(fieldName, "receipt.jpg")
			Expect(err).NotTo(HaveOccurred())
			_, err = part.Write(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(writer.Close()).To(Succeed())

			resp, err := http.Post(ghttpServer.URL()+"/api/receipts", writer.FormDataContentType(), &buf)
			Expect(err).NotTo(HaveOccurred())
			return resp
		}

		ginkgo.When("the upload succeeds", func() {
			ginkgo.It("returns the transaction and the raw extraction", func() {
				resp := upload("receipt", []byte("fake image data"))
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var body struct {
					Transaction *Transaction `json:"transaction"`
					Extraction  *struct {
						Vendor  string `json:"vendor"`
						RawText string `json:"raw_text"`
					} `json:"extraction"`
				}
				Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
				Expect(body.Transaction.Description).To(Equal("Corner Cafe"))
				Expect(body.Transaction.Status).To(Equal(Pending))
				Expect(body.Extraction.RawText).To(Equal("Corner Cafe\nDate: 03/04/25\nTotal: $42.50"))
			})
		})

		ginkgo.When("no file is attached", func() {
			ginkgo.It("returns 400", func() {
				resp := upload("wrong-field", []byte("fake image data"))
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		ginkgo.When("recognition fails", func() {
			ginkgo.BeforeEach(func() {
				processor.processErr = ocr.ErrRecognition
			})

			ginkgo.It("returns 422 so the caller can fall back to manual entry", func() {
				resp := upload("receipt", []byte("fake image data"))
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))
			})
		})
	})

	ginkgo.Describe("handleSummary", func() {
		ginkgo.BeforeEach(func() {
			seed("default", "t1", Income, Sales, 150000, 1)
			seed("default", "t2", Expense, Rent, 80000, 2)
			seed("default", "t3", Expense, Rent, 20000, 20)
		})

		ginkgo.It("returns the rollup", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/transactions/summary")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var summary Summary
			Expect(json.NewDecoder(resp.Body).Decode(&summary)).To(Succeed())
			Expect(summary.ByType[Income].TotalCents).To(Equal(int64(150000)))
			Expect(summary.ByType[Expense].TotalCents).To(Equal(int64(100000)))
			Expect(summary.NetCents).To(Equal(int64(50000)))
		})

		ginkgo.It("honors the inclusive window", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/transactions/summary?start=2025-05-01&end=2025-05-02")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			var summary Summary
			Expect(json.NewDecoder(resp.Body).Decode(&summary)).To(Succeed())
			Expect(summary.ByType[Expense].TotalCents).To(Equal(int64(80000)))
		})

		ginkgo.It("rejects a malformed date", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/transactions/summary?start=May-1st")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	ginkgo.Describe("handleStats", func() {
		ginkgo.BeforeEach(func() {
			seed("default", "t1", Income, Sales, 150000, 1)
			seed("default", "t2", Expense, Rent, 80000, 2)
			seed("default", "t3", Expense, Utilities, 5000, 3)
		})

		ginkgo.It("returns the dashboard rollup with the expense ranking", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/transactions/stats")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var stats statsResponse
			Expect(json.NewDecoder(resp.Body).Decode(&stats)).To(Succeed())
			Expect(stats.IncomeCents).To(Equal(int64(150000)))
			Expect(stats.ExpenseCents).To(Equal(int64(85000)))
			Expect(stats.NetCents).To(Equal(int64(65000)))
			Expect(stats.ByCategory).To(Equal([]CategoryTotal{
				{Category: Rent, TotalCents: 80000},
				{Category: Utilities, TotalCents: 5000},
			}))
		})
	})

	ginkgo.Describe("basic auth", func() {
		ginkgo.BeforeEach(func() {
			auth = BasicAuth{Username: "acme", Password: "secret"}
			setupServer()
		})

		ginkgo.It("rejects requests without credentials", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/transactions")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		ginkgo.It("scopes records to the authenticated user", func() {
			seed("acme", "t1", Expense, Rent, 80000, 1)

			req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/transactions", nil)
			Expect(err).NotTo(HaveOccurred())
			req.SetBasicAuth("acme", "secret")

			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var transactions []*Transaction
			Expect(json.NewDecoder(resp.Body).Decode(&transactions)).To(Succeed())
			Expect(transactions).To(HaveLen(1))
			Expect(transactions[0].OwnerID).To(Equal("acme"))
		})
	})
})
