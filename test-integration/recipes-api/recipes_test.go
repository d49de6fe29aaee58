package integration

import (
	"net/http"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/tidwall/gjson"

	"github.com/stacklok/recipe-server/test-integration/recipes-api/helpers"
)

// ids returns the id of every recipe in a list response, in order
func ids(body []byte) []string {
	var out []string
	for _, r := range gjson.GetBytes(body, "#.id").Array() {
		out = append(out, r.String())
	}
	return out
}

var _ = Describe("Recipes API", Label("recipes"), func() {
	var serverHelper *helpers.ServerTestHelper

	AfterEach(func() {
		if serverHelper != nil {
			Expect(serverHelper.StopServer()).To(Succeed())
		}
	})

	Context("with the default seed", func() {
		BeforeEach(func() {
			serverHelper = helpers.NewServerTestHelper(ctx, "")
			Expect(serverHelper.StartServer()).To(Succeed())
			serverHelper.WaitForServerReady(10 * time.Second)
		})

		It("lists the three seed recipes with id equal to name", func() {
			resp, err := serverHelper.ListRecipes()
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))

			list := gjson.ParseBytes(resp.Body)
			Expect(list.IsArray()).To(BeTrue())
			Expect(list.Array()).To(HaveLen(3))
			Expect(ids(resp.Body)).To(Equal([]string{"boiled white rice", "hot cocoa", "milkshake"}))

			for _, r := range list.Array() {
				Expect(r.Get("id").String()).To(Equal(r.Get("name").String()))
				Expect(r.Get("ingredients").IsArray()).To(BeTrue())
				Expect(r.Map()).To(HaveLen(3))
			}
		})

		It("returns the same list when nothing changes", func() {
			first, err := serverHelper.ListRecipes()
			Expect(err).NotTo(HaveOccurred())
			second, err := serverHelper.ListRecipes()
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Body).To(MatchJSON(first.Body))
		})

		It("creates, lists and deletes a chocolate recipe", func() {
			By("creating the recipe")
			resp, err := serverHelper.CreateRecipe(`{"name":"chocolate","ingredients":["milk","chocolate"]}`)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			Expect(resp.Body).To(MatchJSON(`{"id":"chocolate","name":"chocolate","ingredients":["milk","chocolate"]}`))
			Expect(resp.Header.Get("Location")).To(Equal("/recipes/chocolate"))

			By("listing with the new recipe at the end")
			resp, err = serverHelper.ListRecipes()
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(gjson.GetBytes(resp.Body, "#").Int()).To(BeEquivalentTo(4))
			Expect(gjson.GetBytes(resp.Body, "3.id").String()).To(Equal("chocolate"))
			Expect(gjson.GetBytes(resp.Body, `#(id=="chocolate").ingredients`).Raw).
				To(MatchJSON(`["milk","chocolate"]`))

			By("deleting it")
			resp, err = serverHelper.DeleteRecipe("chocolate")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(resp.Body).To(BeEmpty())

			By("listing without it")
			resp, err = serverHelper.ListRecipes()
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(resp.Body)).To(HaveLen(3))
			Expect(ids(resp.Body)).NotTo(ContainElement("chocolate"))
		})

		It("gets a single recipe by an id with spaces", func() {
			resp, err := serverHelper.GetRecipe("hot cocoa")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(gjson.GetBytes(resp.Body, "name").String()).To(Equal("hot cocoa"))
			Expect(gjson.GetBytes(resp.Body, "ingredients.#").Int()).To(BeEquivalentTo(3))
		})

		It("updates a recipe in place without changing its id", func() {
			resp, err := serverHelper.UpdateRecipe("boiled white rice",
				`{"id":"boiled white rice","name":"brown rice","ingredients":["1 cup brown rice","2 cups water"]}`)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Body).To(MatchJSON(
				`{"id":"boiled white rice","name":"brown rice","ingredients":["1 cup brown rice","2 cups water"]}`))

			resp, err = serverHelper.ListRecipes()
			Expect(err).NotTo(HaveOccurred())
			Expect(gjson.GetBytes(resp.Body, "0.id").String()).To(Equal("boiled white rice"))
			Expect(gjson.GetBytes(resp.Body, "0.name").String()).To(Equal("brown rice"))
			Expect(gjson.GetBytes(resp.Body, "#").Int()).To(BeEquivalentTo(3))
		})

		It("keeps the list length consistent over creates and deletes", func() {
			for _, name := range []string{"toast", "tea", "porridge"} {
				resp, err := serverHelper.CreateRecipe(`{"name":"` + name + `","ingredients":[]}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))
				Expect(gjson.GetBytes(resp.Body, "ingredients").Raw).To(Equal("[]"))
			}
			resp, err := serverHelper.DeleteRecipe("tea")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			resp, err = serverHelper.ListRecipes()
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(resp.Body)).To(Equal([]string{"boiled white rice", "hot cocoa", "milkshake", "toast", "porridge"}))
		})

		DescribeTable("rejects bad requests",
			func(method, path, contentType, body string, wantStatus int) {
				var payload []byte
				if body != "" {
					payload = []byte(body)
				}
				resp, err := serverHelper.Do(method, path, contentType, payload)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(wantStatus))
				Expect(gjson.GetBytes(resp.Body, "error").String()).NotTo(BeEmpty())
			},
			Entry("create without name", http.MethodPost, "/recipes", "application/json",
				`{"ingredients":["milk"]}`, http.StatusBadRequest),
			Entry("create without ingredients", http.MethodPost, "/recipes", "application/json",
				`{"name":"soup"}`, http.StatusBadRequest),
			Entry("create with blank name", http.MethodPost, "/recipes", "application/json",
				`{"name":"   ","ingredients":[]}`, http.StatusBadRequest),
			Entry("create with malformed json", http.MethodPost, "/recipes", "application/json",
				`{"name":`, http.StatusBadRequest),
			Entry("create with form body", http.MethodPost, "/recipes", "application/x-www-form-urlencoded",
				`name=soup`, http.StatusUnsupportedMediaType),
			Entry("create duplicate", http.MethodPost, "/recipes", "application/json",
				`{"name":"milkshake","ingredients":[]}`, http.StatusConflict),
			Entry("update unknown", http.MethodPut, "/recipes/pizza", "application/json",
				`{"name":"pizza","ingredients":[]}`, http.StatusNotFound),
			Entry("update with mismatched id", http.MethodPut, "/recipes/milkshake", "application/json",
				`{"id":"hot cocoa","name":"milkshake","ingredients":[]}`, http.StatusBadRequest),
			Entry("delete unknown", http.MethodDelete, "/recipes/pizza", "", "", http.StatusNotFound),
			Entry("get unknown", http.MethodGet, "/recipes/pizza", "", "", http.StatusNotFound),
			Entry("update with text body", http.MethodPut, "/recipes/milkshake", "text/plain",
				`{"name":"milkshake","ingredients":[]}`, http.StatusUnsupportedMediaType),
			Entry("patch recipe", http.MethodPatch, "/recipes/milkshake", "", "", http.StatusMethodNotAllowed),
			Entry("unknown path", http.MethodGet, "/cookbooks", "", "", http.StatusNotFound),
		)
	})

	Context("with a configured seed and uuid ids", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "recipes-config-")
			Expect(err).NotTo(HaveOccurred())

			configPath := helpers.WriteConfigYAML(tempDir, `
store:
  idStrategy: uuid
  seed:
    - name: toast
      ingredients: [bread, butter]
`)
			serverHelper = helpers.NewServerTestHelper(ctx, configPath)
			Expect(serverHelper.StartServer()).To(Succeed())
			serverHelper.WaitForServerReady(10 * time.Second)
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("serves the configured seed with id equal to name", func() {
			resp, err := serverHelper.ListRecipes()
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(resp.Body)).To(Equal([]string{"toast"}))
		})

		It("assigns generated ids that differ from the name", func() {
			resp, err := serverHelper.CreateRecipe(`{"name":"toast","ingredients":["rye bread"]}`)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			id := gjson.GetBytes(resp.Body, "id").String()
			Expect(id).NotTo(Equal("toast"))
			Expect(id).To(MatchRegexp(`^[0-9a-f-]{36}$`))
			Expect(resp.Header.Get("Location")).To(Equal("/recipes/" + id))

			resp, err = serverHelper.DeleteRecipe(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
		})
	})
})

var _ = Describe("Ambient endpoints", Label("system"), func() {
	var serverHelper *helpers.ServerTestHelper

	BeforeEach(func() {
		serverHelper = helpers.NewServerTestHelper(ctx, "")
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	})

	AfterEach(func() {
		Expect(serverHelper.StopServer()).To(Succeed())
	})

	It("reports health, version and the OpenAPI document", func() {
		resp, err := serverHelper.Do(http.MethodGet, "/health", "", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(gjson.GetBytes(resp.Body, "status").String()).To(Equal("healthy"))

		resp, err = serverHelper.Do(http.MethodGet, "/version", "", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(gjson.GetBytes(resp.Body, "go_version").String()).NotTo(BeEmpty())

		resp, err = serverHelper.Do(http.MethodGet, "/openapi.json", "", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(gjson.GetBytes(resp.Body, "paths").Map()).To(HaveKey("/recipes/{id}"))
	})
})
