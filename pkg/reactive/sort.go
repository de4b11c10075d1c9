package reactive

// sortCompare orders values by their string form, with null rendered as
// "null", matching the default array sort order.
func sortCompare(x, y any) float64 {
	if StrictEquals(x, y) {
		return 0
	}
	xs, ys := ToString(x), ToString(y)
	if xs < ys {
		return -1
	}
	return 1
}

// preSortCompare moves undefined values behind everything else and treats
// all other pairs as equal.
func preSortCompare(x, y any) float64 {
	if IsUndefined(x) {
		if IsUndefined(y) {
			return 0
		}
		return 1
	}
	if IsUndefined(y) {
		return -1
	}
	return 0
}

// insertionSort sorts items[from:to], moving indexMap entries with their
// elements.
func insertionSort(items []any, indexMap []int, from, to int, compare func(x, y any) float64) {
	for i := from + 1; i < to; i++ {
		element, index := items[i], indexMap[i]
		j := i - 1
		for ; j >= from; j-- {
			if compare(items[j], element) > 0 {
				items[j+1], indexMap[j+1] = items[j], indexMap[j]
			} else {
				break
			}
		}
		items[j+1], indexMap[j+1] = element, index
	}
}

// quickSort sorts items[from:to] with a median-of-three quicksort that falls
// back to insertion sort for ranges of ten or fewer elements. Every move of
// an element moves its indexMap entry too.
func quickSort(items []any, indexMap []int, from, to int, compare func(x, y any) float64) {
	for {
		if to-from <= 10 {
			insertionSort(items, indexMap, from, to, compare)
			return
		}

		third := from + ((to - from) >> 1)
		v0, i0 := items[from], indexMap[from]
		v1, i1 := items[to-1], indexMap[to-1]
		v2, i2 := items[third], indexMap[third]

		if compare(v0, v1) > 0 {
			v0, i0, v1, i1 = v1, i1, v0, i0
		}
		if compare(v0, v2) >= 0 {
			v0, i0, v1, i1, v2, i2 = v2, i2, v0, i0, v1, i1
		} else if compare(v1, v2) > 0 {
			v1, i1, v2, i2 = v2, i2, v1, i1
		}

		items[from], indexMap[from] = v0, i0
		items[to-1], indexMap[to-1] = v2, i2
		pivot, pivotIndex := v1, i1

		lowEnd := from + 1
		highStart := to - 1
		items[third], indexMap[third] = items[lowEnd], indexMap[lowEnd]
		items[lowEnd], indexMap[lowEnd] = pivot, pivotIndex

	partition:
		for i := lowEnd + 1; i < highStart; i++ {
			element, elementIndex := items[i], indexMap[i]
			order := compare(element, pivot)
			if order < 0 {
				items[i], indexMap[i] = items[lowEnd], indexMap[lowEnd]
				items[lowEnd], indexMap[lowEnd] = element, elementIndex
				lowEnd++
			} else if order > 0 {
				for {
					highStart--
					if highStart == i {
						break partition
					}
					order = compare(items[highStart], pivot)
					if order <= 0 {
						break
					}
				}
				items[i], indexMap[i] = items[highStart], indexMap[highStart]
				items[highStart], indexMap[highStart] = element, elementIndex
				if order < 0 {
					element, elementIndex = items[i], indexMap[i]
					items[i], indexMap[i] = items[lowEnd], indexMap[lowEnd]
					items[lowEnd], indexMap[lowEnd] = element, elementIndex
					lowEnd++
				}
			}
		}

		if to-highStart < lowEnd-from {
			quickSort(items, indexMap, highStart, to, compare)
			to = lowEnd
		} else {
			quickSort(items, indexMap, from, lowEnd, compare)
			from = highStart
		}
	}
}
