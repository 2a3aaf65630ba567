package handlers_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/go-storefront/internal/api/dto"
	"github.com/hugh/go-storefront/internal/api/handlers"
	"github.com/hugh/go-storefront/internal/database/models"
	"github.com/hugh/go-storefront/internal/products"
	"github.com/hugh/go-storefront/internal/testutil"
	"github.com/hugh/go-storefront/pkg/util"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productsPath = "/api/ecommerce/v1/products"

func setupProductTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	handler := handlers.NewProductHandler(products.NewService(tc.DB, util.DiscardLogger()), util.DiscardLogger())

	r := chi.NewRouter()
	r.Get(productsPath, handler.List)
	r.Post(productsPath, handler.Create)
	r.Get(productsPath+"/{id}", handler.Get)
	r.Delete(productsPath+"/{id}", handler.Delete)
	r.Patch(productsPath+"/{id}", handler.Update)

	return r, tc
}

func productURL(id uint64) string {
	return productsPath + "/" + strconv.FormatUint(id, 10)
}

func TestProductHandler_List(t *testing.T) {
	router, tc := setupProductTestRouter(t)

	t.Run("empty catalog is an empty array", func(t *testing.T) {
		rr := serve(router, testutil.UnauthenticatedRequest(t, "GET", productsPath, nil))

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("lists every product", func(t *testing.T) {
		testutil.CreateTestProduct(t, tc.DB, "Kettle", "29.99", 4)
		testutil.CreateTestProduct(t, tc.DB, "Toaster", "19.50", 0)

		rr := serve(router, testutil.UnauthenticatedRequest(t, "GET", productsPath, nil))

		testutil.AssertStatus(t, rr, http.StatusOK)
		var list []models.Product
		testutil.ParseJSONResponse(t, rr, &list)
		require.Len(t, list, 2)
		assert.Equal(t, "Kettle", list[0].Name)
		assert.True(t, decimal.RequireFromString("29.99").Equal(list[0].Price))
		assert.Equal(t, "Toaster", list[1].Name)
	})
}

func TestProductHandler_Get(t *testing.T) {
	router, tc := setupProductTestRouter(t)
	product := testutil.CreateTestProduct(t, tc.DB, "Lamp", "45.00", 3)

	t.Run("existing product", func(t *testing.T) {
		rr := serve(router, testutil.UnauthenticatedRequest(t, "GET", productURL(product.ID), nil))

		testutil.AssertStatus(t, rr, http.StatusOK)
		var got models.Product
		testutil.ParseJSONResponse(t, rr, &got)
		assert.Equal(t, product.ID, got.ID)
		assert.Equal(t, 3, got.Stock)
	})

	t.Run("missing product", func(t *testing.T) {
		rr := serve(router, testutil.UnauthenticatedRequest(t, "GET", productURL(product.ID+100), nil))

		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})

	for _, raw := range []string{"0", "-1", "abc"} {
		t.Run("invalid id "+raw, func(t *testing.T) {
			rr := serve(router, testutil.UnauthenticatedRequest(t, "GET", productsPath+"/"+raw, nil))

			testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
		})
	}
}

func TestProductHandler_Create(t *testing.T) {
	router, tc := setupProductTestRouter(t)

	t.Run("creates product", func(t *testing.T) {
		body := map[string]interface{}{
			"name":        "Chair",
			"stock":       12,
			"description": "Oak dining chair",
			"price":       "89.90",
		}
		rr := serve(router, testutil.AuthenticatedRequest(t, "POST", productsPath, body, tc.EmployeeToken))

		testutil.AssertStatus(t, rr, http.StatusCreated)
		assert.Empty(t, rr.Body.String())

		var product models.Product
		require.NoError(t, tc.DB.Where("name = ?", "Chair").First(&product).Error)
		assert.Equal(t, 12, product.Stock)
	})

	t.Run("zero stock is allowed", func(t *testing.T) {
		body := map[string]interface{}{
			"name":        "Stool",
			"stock":       0,
			"description": "Bar stool",
			"price":       10,
		}
		rr := serve(router, testutil.AuthenticatedRequest(t, "POST", productsPath, body, tc.EmployeeToken))

		testutil.AssertStatus(t, rr, http.StatusCreated)
	})

	t.Run("duplicate name", func(t *testing.T) {
		body := map[string]interface{}{
			"name":        "Chair",
			"stock":       1,
			"description": "Another chair",
			"price":       "10.00",
		}
		rr := serve(router, testutil.AuthenticatedRequest(t, "POST", productsPath, body, tc.EmployeeToken))

		testutil.AssertStatus(t, rr, http.StatusConflict)
	})

	t.Run("invalid fields", func(t *testing.T) {
		body := map[string]interface{}{
			"name":        "",
			"stock":       -1,
			"description": " ",
			"price":       "0",
		}
		rr := serve(router, testutil.AuthenticatedRequest(t, "POST", productsPath, body, tc.EmployeeToken))

		testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
		var resp dto.ErrorResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Contains(t, resp.Details, "name")
		assert.Contains(t, resp.Details, "stock")
		assert.Contains(t, resp.Details, "description")
		assert.Contains(t, resp.Details, "price")
	})

	t.Run("values the columns cannot hold", func(t *testing.T) {
		tests := []struct {
			name  string
			field string
			stock int
			price string
		}{
			{"sub-cent price", "price", 1, "0.001"},
			{"price overflows numeric", "price", 1, "12345678901234.5"},
			{"stock overflows integer", "stock", 3000000000, "5.00"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				body := map[string]interface{}{
					"name":        "Bench " + tt.name,
					"stock":       tt.stock,
					"description": "Garden bench",
					"price":       tt.price,
				}
				rr := serve(router, testutil.AuthenticatedRequest(t, "POST", productsPath, body, tc.EmployeeToken))

				testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
				var resp dto.ErrorResponse
				testutil.ParseJSONResponse(t, rr, &resp)
				assert.Contains(t, resp.Details, tt.field)

				var count int64
				require.NoError(t, tc.DB.Model(&models.Product{}).Where("name = ?", body["name"]).Count(&count).Error)
				assert.Zero(t, count)
			})
		}
	})

	t.Run("missing stock", func(t *testing.T) {
		body := map[string]interface{}{
			"name":        "Desk",
			"description": "Standing desk",
			"price":       "300",
		}
		rr := serve(router, testutil.AuthenticatedRequest(t, "POST", productsPath, body, tc.EmployeeToken))

		testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
	})

	t.Run("malformed body", func(t *testing.T) {
		rr := serve(router, testutil.AuthenticatedRequest(t, "POST", productsPath, `{"name":`, tc.EmployeeToken))

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestProductHandler_Delete(t *testing.T) {
	router, tc := setupProductTestRouter(t)
	product := testutil.CreateTestProduct(t, tc.DB, "Rug", "120.00", 2)

	rr := serve(router, testutil.AuthenticatedRequest(t, "DELETE", productURL(product.ID), nil, tc.EmployeeToken))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = serve(router, testutil.AuthenticatedRequest(t, "DELETE", productURL(product.ID), nil, tc.EmployeeToken))
	testutil.AssertStatus(t, rr, http.StatusNotFound)

	rr = serve(router, testutil.AuthenticatedRequest(t, "DELETE", productsPath+"/0", nil, tc.EmployeeToken))
	testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
}

func TestProductHandler_Update(t *testing.T) {
	router, tc := setupProductTestRouter(t)
	product := testutil.CreateTestProduct(t, tc.DB, "Vase", "15.00", 8)

	body := map[string]interface{}{
		"description": "Hand-blown glass vase",
		"stock":       5,
		"price":       "17.25",
	}

	t.Run("updates product", func(t *testing.T) {
		rr := serve(router, testutil.AuthenticatedRequest(t, "PATCH", productURL(product.ID), body, tc.EmployeeToken))
		testutil.AssertStatus(t, rr, http.StatusNoContent)

		var got models.Product
		require.NoError(t, tc.DB.First(&got, product.ID).Error)
		assert.Equal(t, "Vase", got.Name)
		assert.Equal(t, "Hand-blown glass vase", got.Description)
		assert.Equal(t, 5, got.Stock)
		assert.True(t, decimal.RequireFromString("17.25").Equal(got.Price))
	})

	t.Run("missing product", func(t *testing.T) {
		rr := serve(router, testutil.AuthenticatedRequest(t, "PATCH", productURL(product.ID+100), body, tc.EmployeeToken))
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})

	t.Run("invalid body", func(t *testing.T) {
		bad := map[string]interface{}{"description": "x", "stock": -3, "price": "1"}
		rr := serve(router, testutil.AuthenticatedRequest(t, "PATCH", productURL(product.ID), bad, tc.EmployeeToken))
		testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
	})

	t.Run("values the columns cannot hold", func(t *testing.T) {
		for _, bad := range []map[string]interface{}{
			{"description": "x", "stock": 1, "price": "0.001"},
			{"description": "x", "stock": 1, "price": "12345678901234.5"},
			{"description": "x", "stock": 3000000000, "price": "1.00"},
		} {
			rr := serve(router, testutil.AuthenticatedRequest(t, "PATCH", productURL(product.ID), bad, tc.EmployeeToken))
			testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
		}

		var got models.Product
		require.NoError(t, tc.DB.First(&got, product.ID).Error)
		assert.True(t, decimal.RequireFromString("17.25").Equal(got.Price))
	})
}
