package content

// FieldKind controls how a form field is rendered and parsed.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindTextArea FieldKind = "textarea"
	KindNumber   FieldKind = "number"
	KindBool     FieldKind = "bool"
	KindSelect   FieldKind = "select"
	KindURL      FieldKind = "url"
)

// ColumnKind controls how a table cell is formatted.
type ColumnKind string

const (
	ColText ColumnKind = "text"
	ColBool ColumnKind = "bool"
	ColTime ColumnKind = "time"
)

type Field struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
	Options  []string
	Help     string
}

type Column struct {
	Field string
	Label string
	Kind  ColumnKind
}

// Resource is one backend collection managed from the dashboard.
type Resource struct {
	Key       string
	Title     string
	Singular  string
	Path      string
	Fields    []Field
	Columns   []Column
	Editable  bool
	Deletable bool
}

var sectionFields = []Field{
	{Name: "title", Label: "Title", Kind: KindText, Required: true},
	{Name: "subtitle", Label: "Subtitle", Kind: KindText},
	{Name: "body", Label: "Body", Kind: KindTextArea},
	{Name: "image_url", Label: "Image URL", Kind: KindURL},
	{Name: "sort_order", Label: "Sort order", Kind: KindNumber},
	{Name: "is_active", Label: "Active", Kind: KindBool},
}

var sectionColumns = []Column{
	{Field: "title", Label: "Title", Kind: ColText},
	{Field: "sort_order", Label: "Order", Kind: ColText},
	{Field: "is_active", Label: "Active", Kind: ColBool},
	{Field: "updated_at", Label: "Updated", Kind: ColTime},
}

var catalog = []Resource{
	{
		Key:      "courses",
		Title:    "Courses",
		Singular: "Course",
		Path:     "/admin/courses",
		Fields: []Field{
			{Name: "title", Label: "Title", Kind: KindText, Required: true},
			{Name: "slug", Label: "Slug", Kind: KindText, Help: "Leave blank to derive from the title"},
			{Name: "category_id", Label: "Category ID", Kind: KindNumber},
			{Name: "level", Label: "Level", Kind: KindSelect, Options: []string{"beginner", "intermediate", "advanced"}},
			{Name: "duration", Label: "Duration", Kind: KindText},
			{Name: "price", Label: "Price", Kind: KindNumber},
			{Name: "thumbnail", Label: "Thumbnail URL", Kind: KindURL},
			{Name: "description", Label: "Description", Kind: KindTextArea},
			{Name: "is_published", Label: "Published", Kind: KindBool},
		},
		Columns: []Column{
			{Field: "title", Label: "Title", Kind: ColText},
			{Field: "level", Label: "Level", Kind: ColText},
			{Field: "price", Label: "Price", Kind: ColText},
			{Field: "is_published", Label: "Published", Kind: ColBool},
			{Field: "updated_at", Label: "Updated", Kind: ColTime},
		},
		Editable:  true,
		Deletable: true,
	},
	{
		Key:      "blogs",
		Title:    "Blogs",
		Singular: "Blog post",
		Path:     "/admin/blogs",
		Fields: []Field{
			{Name: "title", Label: "Title", Kind: KindText, Required: true},
			{Name: "slug", Label: "Slug", Kind: KindText},
			{Name: "author", Label: "Author", Kind: KindText},
			{Name: "excerpt", Label: "Excerpt", Kind: KindTextArea},
			{Name: "content", Label: "Content", Kind: KindTextArea, Required: true},
			{Name: "cover_image", Label: "Cover image URL", Kind: KindURL},
			{Name: "is_published", Label: "Published", Kind: KindBool},
		},
		Columns: []Column{
			{Field: "title", Label: "Title", Kind: ColText},
			{Field: "author", Label: "Author", Kind: ColText},
			{Field: "is_published", Label: "Published", Kind: ColBool},
			{Field: "created_at", Label: "Created", Kind: ColTime},
		},
		Editable:  true,
		Deletable: true,
	},
	{
		Key:      "leads",
		Title:    "Leads",
		Singular: "Lead",
		Path:     "/admin/leads",
		Columns: []Column{
			{Field: "name", Label: "Name", Kind: ColText},
			{Field: "email", Label: "Email", Kind: ColText},
			{Field: "phone", Label: "Phone", Kind: ColText},
			{Field: "course", Label: "Interested in", Kind: ColText},
			{Field: "created_at", Label: "Received", Kind: ColTime},
		},
		Deletable: true,
	},
	{
		Key:      "categories",
		Title:    "Categories",
		Singular: "Category",
		Path:     "/admin/categories",
		Fields: []Field{
			{Name: "name", Label: "Name", Kind: KindText, Required: true},
			{Name: "slug", Label: "Slug", Kind: KindText},
			{Name: "description", Label: "Description", Kind: KindTextArea},
		},
		Columns: []Column{
			{Field: "name", Label: "Name", Kind: ColText},
			{Field: "slug", Label: "Slug", Kind: ColText},
			{Field: "updated_at", Label: "Updated", Kind: ColTime},
		},
		Editable:  true,
		Deletable: true,
	},
	{
		Key:      "seo",
		Title:    "SEO",
		Singular: "SEO entry",
		Path:     "/admin/seo",
		Fields: []Field{
			{Name: "page", Label: "Page", Kind: KindText, Required: true, Help: "Route or slug the metadata applies to"},
			{Name: "meta_title", Label: "Meta title", Kind: KindText},
			{Name: "meta_description", Label: "Meta description", Kind: KindTextArea},
			{Name: "meta_keywords", Label: "Meta keywords", Kind: KindText},
			{Name: "canonical_url", Label: "Canonical URL", Kind: KindURL},
			{Name: "og_image", Label: "Open Graph image URL", Kind: KindURL},
		},
		Columns: []Column{
			{Field: "page", Label: "Page", Kind: ColText},
			{Field: "meta_title", Label: "Meta title", Kind: ColText},
			{Field: "updated_at", Label: "Updated", Kind: ColTime},
		},
		Editable:  true,
		Deletable: true,
	},
	{
		Key:      "interview-categories",
		Title:    "Interview question categories",
		Singular: "Interview category",
		Path:     "/admin/interview-categories",
		Fields: []Field{
			{Name: "name", Label: "Name", Kind: KindText, Required: true},
			{Name: "description", Label: "Description", Kind: KindTextArea},
			{Name: "is_active", Label: "Active", Kind: KindBool},
		},
		Columns: []Column{
			{Field: "name", Label: "Name", Kind: ColText},
			{Field: "is_active", Label: "Active", Kind: ColBool},
			{Field: "updated_at", Label: "Updated", Kind: ColTime},
		},
		Editable:  true,
		Deletable: true,
	},
	{
		Key:       "placements",
		Title:     "Placements",
		Singular:  "Placement section",
		Path:      "/admin/page-content/placements",
		Fields:    sectionFields,
		Columns:   sectionColumns,
		Editable:  true,
		Deletable: true,
	},
	{
		Key:       "job-assistance",
		Title:     "Job assistance",
		Singular:  "Job assistance section",
		Path:      "/admin/page-content/job-assistance",
		Fields:    sectionFields,
		Columns:   sectionColumns,
		Editable:  true,
		Deletable: true,
	},
}

// All returns every managed resource in navigation order.
func All() []Resource {
	out := make([]Resource, len(catalog))
	copy(out, catalog)
	return out
}

func Lookup(key string) (Resource, bool) {
	for _, r := range catalog {
		if r.Key == key {
			return r, true
		}
	}
	return Resource{}, false
}
