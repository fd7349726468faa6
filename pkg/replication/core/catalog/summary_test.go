package catalog_test

import (
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/tigerroll/syncwave/pkg/replication/core/catalog"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
)

func addStream(namespace, name string) model.StreamTransform {
	return model.StreamTransform{TransformType: model.StreamTransformAddStream, StreamDescriptor: model.StreamDescriptor{Name: name, Namespace: namespace}}
}

func removeStream(namespace, name string) model.StreamTransform {
	return model.StreamTransform{TransformType: model.StreamTransformRemoveStream, StreamDescriptor: model.StreamDescriptor{Name: name, Namespace: namespace}}
}

func updateStream(namespace, name string, fields ...model.FieldTransform) model.StreamTransform {
	return model.StreamTransform{
		TransformType:    model.StreamTransformUpdateStream,
		StreamDescriptor: model.StreamDescriptor{Name: name, Namespace: namespace},
		UpdateStream:     fields,
	}
}

func field(kind model.FieldTransformType, path ...string) model.FieldTransform {
	return model.FieldTransform{TransformType: kind, FieldName: path}
}

func usersFieldChanges() []model.FieldTransform {
	return []model.FieldTransform{
		field(model.FieldTransformRemoveField, "alpha", "beta", "delta"),
		field(model.FieldTransformRemoveField, "another_removal"),
		field(model.FieldTransformAddField, "new", "field"),
		field(model.FieldTransformAddField, "added_too"),
		field(model.FieldTransformUpdateFieldSchema, "cow"),
	}
}

func TestBuildSummaryGolden(t *testing.T) {
	cases := map[string]*model.CatalogDiff{
		"streams_added": {Transforms: []model.StreamTransform{
			addStream("ns", "foo"),
			addStream("", "invoices"),
		}},
		"streams_removed": {Transforms: []model.StreamTransform{
			removeStream("schema1", "also_removed"),
			removeStream("", "deprecated"),
		}},
		"fields_updated": {Transforms: []model.StreamTransform{
			updateStream("main", "users", usersFieldChanges()...),
		}},
		"complex": {Transforms: []model.StreamTransform{
			addStream("ns", "foo"),
			removeStream("", "deprecated"),
			removeStream("schema1", "also_removed"),
			updateStream("main", "users",
				field(model.FieldTransformAddField, "new", "field"),
				field(model.FieldTransformAddField, "added_too"),
				field(model.FieldTransformUpdateFieldSchema, "cow"),
			),
		}},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for name, diff := range cases {
		t.Run(name, func(t *testing.T) {
			g.Assert(t, name, []byte(catalog.BuildSummary(diff)))
		})
	}
}

func TestBuildSummaryExactText(t *testing.T) {
	diff := &model.CatalogDiff{Transforms: []model.StreamTransform{addStream("ns", "foo"), addStream("", "invoices")}}
	assert.Equal(t, "* Streams (+2/-0)\n  * + invoices\n  * + ns.foo\n", catalog.BuildSummary(diff))

	fields := &model.CatalogDiff{Transforms: []model.StreamTransform{updateStream("main", "users", usersFieldChanges()...)}}
	assert.Equal(t,
		"* Fields (+2/~1/-2)\n  * ~ main.users\n    * + added_too\n    * + new.field\n    * - alpha.beta.delta\n    * - another_removal\n    * ~ cow\n",
		catalog.BuildSummary(fields))
}

func TestBuildSummaryEmpty(t *testing.T) {
	assert.Equal(t, "", catalog.BuildSummary(nil))
	assert.Equal(t, "", catalog.BuildSummary(&model.CatalogDiff{}))
}

func TestBuildSummaryMergesUpdatesOfSameStream(t *testing.T) {
	diff := &model.CatalogDiff{Transforms: []model.StreamTransform{
		updateStream("", "orders", field(model.FieldTransformRemoveField, "b")),
		updateStream("", "accounts"),
		updateStream("", "orders", field(model.FieldTransformAddField, "a")),
	}}

	assert.Equal(t, "* Fields (+1/~0/-1)\n  * ~ accounts\n  * ~ orders\n    * + a\n    * - b\n", catalog.BuildSummary(diff))
}

func TestBuildSummaryIsOrderIndependent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("shuffling transforms never changes the summary", prop.ForAll(
		func(names []string, kinds []int, seed int64) bool {
			diff := &model.CatalogDiff{}
			for i, name := range names {
				if name == "" {
					continue
				}
				ns := ""
				if i%3 == 0 {
					ns = "ns"
				}
				switch kinds[i%len(kinds)] {
				case 0:
					diff.Transforms = append(diff.Transforms, addStream(ns, name))
				case 1:
					diff.Transforms = append(diff.Transforms, removeStream(ns, name))
				default:
					diff.Transforms = append(diff.Transforms, updateStream(ns, name,
						field(model.FieldTransformAddField, name, "x"),
						field(model.FieldTransformRemoveField, "y"),
						field(model.FieldTransformUpdateFieldSchema, name),
					))
				}
			}
			want := catalog.BuildSummary(diff)

			shuffled := &model.CatalogDiff{Transforms: append([]model.StreamTransform(nil), diff.Transforms...)}
			r := rand.New(rand.NewSource(seed))
			r.Shuffle(len(shuffled.Transforms), func(i, j int) {
				shuffled.Transforms[i], shuffled.Transforms[j] = shuffled.Transforms[j], shuffled.Transforms[i]
			})
			for i := range shuffled.Transforms {
				f := append([]model.FieldTransform(nil), shuffled.Transforms[i].UpdateStream...)
				r.Shuffle(len(f), func(a, b int) { f[a], f[b] = f[b], f[a] })
				shuffled.Transforms[i].UpdateStream = f
			}

			return catalog.BuildSummary(shuffled) == want && catalog.BuildSummary(diff) == want
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOfN(4, gen.IntRange(0, 2)),
		gen.Int64(),
	))

	properties.TestingRun(t)
}
