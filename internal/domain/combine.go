package domain

// maxWindow bounds the reorder reconciliation in Combine. Near-simultaneous
// messages can be recorded in different relative order by each export, but
// never more than a handful at a time; 5 keeps the permutation search at
// most 5! = 120 equivalence checks per stall.
const maxWindow = 5

// Combine merges two chats built from the same underlying conversation
// into one deduplicated sequence. Matching uses Equivalent, so edits of
// timestamps within Tolerance, lost captions, and unresolved media do
// not produce duplicates. The result length is always between
// max(len(a), len(b)) and len(a)+len(b), and Combine terminates for any
// pair of finite inputs.
//
// The merge is a single forward pass with one cursor per side:
//
//  1. If the current messages match, merge them and advance both.
//  2. Otherwise try windows of 2..maxWindow messages on each side and
//     look for a permutation of a's window matching b's; emit in b's
//     order with a's payload.
//  3. Otherwise compare each side's gap to its previous message; a gap
//     difference over Tolerance means the other side holds extra
//     messages, which are drained unmerged until it catches up.
//  4. Otherwise emit the earlier-timestamped side's message unmerged
//     and advance that cursor, so progress is always made.
//
// Once either side runs out, the remainder of the other is appended.
func Combine(a, b *Chat) *Chat {
	as, bs := a.Messages, b.Messages
	merged := make([]Message, 0, max(len(as), len(bs)))
	i, j := 0, 0
	for i < len(as) && j < len(bs) {
		if Equivalent(as[i], bs[j]) {
			merged = append(merged, mergePair(as[i], bs[j]))
			i++
			j++
			continue
		}

		if w, perm := matchWindow(as[i:], bs[j:]); w > 0 {
			for k := 0; k < w; k++ {
				merged = append(merged, mergePair(as[i+perm[k]], bs[j+k]))
			}
			i += w
			j += w
			continue
		}

		if i > 0 && j > 0 {
			gapA := as[i].Timestamp.Sub(as[i-1].Timestamp)
			gapB := bs[j].Timestamp.Sub(bs[j-1].Timestamp)
			if gapA-gapB > Tolerance {
				// a jumped forward in time; b holds extra messages
				for j < len(bs) && !Equivalent(bs[j], as[i]) {
					merged = append(merged, bs[j])
					j++
				}
				continue
			}
			if gapB-gapA > Tolerance {
				for i < len(as) && !Equivalent(as[i], bs[j]) {
					merged = append(merged, as[i])
					i++
				}
				continue
			}
		}

		// No rule applies; emit the earlier message so the pass cannot stall.
		if bs[j].Timestamp.Before(as[i].Timestamp) {
			merged = append(merged, bs[j])
			j++
		} else {
			merged = append(merged, as[i])
			i++
		}
	}
	merged = append(merged, as[i:]...)
	merged = append(merged, bs[j:]...)
	return &Chat{Messages: merged}
}

// mergePair combines two equivalent messages into one, keeping a's
// sender and timestamp. For media, whichever side still knows the
// kind, caption, or resolved path wins, with a preferred on ties.
func mergePair(a, b Message) Message {
	if a.Kind != MediaMessage {
		return a
	}
	m := a
	if m.Media.Kind == MediaOther {
		m.Media.Kind = b.Media.Kind
	}
	if m.Media.Caption == "" {
		m.Media.Caption = b.Media.Caption
	}
	if m.Media.Path == "" {
		m.Media.Path = b.Media.Path
	}
	if m.Media.Name == "" {
		m.Media.Name = b.Media.Name
	}
	return m
}

// matchWindow searches for the smallest window size w in [2, maxWindow]
// and the first permutation (in lexicographic order) of as[:w] under
// which every position matches bs[:w]. It returns the window size and
// the permutation, or 0 and nil when no window matches. perm[k] is the
// index into as of the message paired with bs[k].
func matchWindow(as, bs []Message) (int, []int) {
	for w := 2; w <= maxWindow; w++ {
		if w > len(as) || w > len(bs) {
			break
		}
		var match []int
		eachPermutation(w, func(perm []int) bool {
			for k, c := range perm {
				if !Equivalent(as[c], bs[k]) {
					return false
				}
			}
			match = append([]int(nil), perm...)
			return true
		})
		if match != nil {
			return w, match
		}
	}
	return 0, nil
}

// eachPermutation calls fn with every permutation of [0, n) in
// lexicographic order until fn returns true. The slice passed to fn is
// reused between calls.
func eachPermutation(n int, fn func(perm []int) bool) {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for {
		if fn(perm) {
			return
		}
		// advance to the next lexicographic permutation
		i := n - 2
		for i >= 0 && perm[i] >= perm[i+1] {
			i--
		}
		if i < 0 {
			return
		}
		j := n - 1
		for perm[j] <= perm[i] {
			j--
		}
		perm[i], perm[j] = perm[j], perm[i]
		for l, r := i+1, n-1; l < r; l, r = l+1, r-1 {
			perm[l], perm[r] = perm[r], perm[l]
		}
	}
}
