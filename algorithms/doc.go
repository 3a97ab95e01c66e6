// Package algorithms implements the catalog's sorting, searching, shelf
// optimisation and per-author aggregation routines.
//
// Sorting:
//
//   - InsertionSort keeps the ordered inventory sorted by ISBN. O(n²) worst
//     case, O(n) when the input is already sorted; stable.
//   - MergeSort orders the global report by value. O(n log n); stable.
//
// Searching:
//
//   - LinearSearch scans the general inventory for a case-insensitive
//     substring of the title or author. O(n).
//   - BinarySearch finds an ISBN in a slice already sorted by ISBN. O(log n).
//     An unsorted slice is not detected and gives undefined answers.
//
// Shelves:
//
//   - FindRiskyCombinations enumerates every group of four books and keeps the
//     ones heavier than a threshold. O(n⁴), no pruning.
//   - FindOptimalShelf solves the 0/1 knapsack by backtracking. O(2ⁿ); meant
//     for the handful of candidates one shelf can take.
//
// Aggregation:
//
//   - AuthorTotalValue adds each frame's contribution to the value returned by
//     the deeper call.
//   - AuthorAverageWeight threads the running weight and count through its
//     parameters and reports each step through a TraceFunc.
//
// All functions are pure: they never modify the input slice or the books in it.
package algorithms
