package algorithms_test

import (
	"math/rand"
	"slices"
	"testing"

	"library-catalog/algorithms"
	"library-catalog/models"

	"github.com/stretchr/testify/assert"
)

type tagged struct {
	key int
	tag string
}

func byKey(t tagged) int { return t.key }

func randomInts(seed int64, n int) []int {
	r := rand.New(rand.NewSource(seed))
	out := make([]int, n)
	for i := range out {
		out[i] = r.Intn(20)
	}
	return out
}

func identity(v int) int { return v }

// TestInsertionSort_OrderedPermutation checks the output is ascending and
// holds exactly the input elements.
func TestInsertionSort_OrderedPermutation(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		in := randomInts(seed, int(seed)*3)
		out := algorithms.InsertionSort(in, identity)

		assert.True(t, slices.IsSorted(out), "seed %d: output not sorted", seed)
		assert.ElementsMatch(t, in, out, "seed %d: output is not a permutation", seed)
	}
}

func TestInsertionSort_StableAndNonMutating(t *testing.T) {
	in := []tagged{{2, "a"}, {1, "b"}, {2, "c"}, {1, "d"}, {0, "e"}}
	orig := slices.Clone(in)

	out := algorithms.InsertionSort(in, byKey)

	assert.Equal(t, []tagged{{0, "e"}, {1, "b"}, {1, "d"}, {2, "a"}, {2, "c"}}, out)
	assert.Equal(t, orig, in, "input must not be reordered")
}

func TestInsertionSort_Empty(t *testing.T) {
	out := algorithms.InsertionSort([]int{}, identity)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestMergeSort_Stable(t *testing.T) {
	in := []tagged{{3, "a"}, {1, "b"}, {3, "c"}, {2, "d"}, {1, "e"}, {3, "f"}}
	out := algorithms.MergeSort(in, byKey)

	assert.Equal(t, []tagged{{1, "b"}, {1, "e"}, {2, "d"}, {3, "a"}, {3, "c"}, {3, "f"}}, out)
}

func TestMergeSort_IdempotentAndAgreesWithInsertion(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		in := randomInts(seed, 25)
		once := algorithms.MergeSort(in, identity)
		twice := algorithms.MergeSort(once, identity)

		assert.Equal(t, once, twice, "seed %d", seed)
		assert.Equal(t, algorithms.InsertionSort(in, identity), once, "seed %d", seed)
	}
}

func TestMergeSort_DoesNotMutateInput(t *testing.T) {
	books := []*models.Book{
		{ISBN: "3", Value: 300},
		{ISBN: "1", Value: 100},
		{ISBN: "2", Value: 200},
	}
	orig := slices.Clone(books)

	out := algorithms.MergeSort(books, algorithms.ByValue)

	assert.Equal(t, orig, books)
	assert.Equal(t, []string{"1", "2", "3"}, isbns(out))
}

func isbns(books []*models.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ISBN
	}
	return out
}
