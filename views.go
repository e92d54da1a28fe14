package guard

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/django/v3"
)

//go:embed views
var viewsFS embed.FS

// ViewsFS returns the templates shipped with the guards, rooted so that
// the loading view is "guard/loading.django".
func ViewsFS() fs.FS {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	return sub
}

// NewViewEngine returns a django view engine serving the bundled templates.
// Apps with their own engine should provide a "guard/loading" view.
func NewViewEngine() *django.Engine {
	return django.NewFileSystem(http.FS(ViewsFS()), ".django")
}
