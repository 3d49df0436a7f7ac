package oracle

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/astra-quant/recallbot/pkg/errors"
)

var (
	scoreTagPattern    = regexp.MustCompile(`(?is)<score>\s*(-?\d+(?:\.\d+)?)\s*</score>`)
	scorePhrasePattern = regexp.MustCompile(`(?i)confidence score of (-?\d+(?:\.\d+)?)`)
)

// ParseVerdict extracts a confidence score from a free-text advisor answer.
// The <score>X</score> tag form wins; "confidence score of X.XX" prose is the
// fallback. The returned reason is the answer with score tags stripped. The
// score is not clamped; callers see exactly what the advisor said.
func ParseVerdict(answer string) (Verdict, error) {
	reason := strings.TrimSpace(scoreTagPattern.ReplaceAllString(answer, ""))

	if m := scoreTagPattern.FindStringSubmatch(answer); m != nil {
		score, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Verdict{}, errors.Wrapf(errors.ErrCodeOracleParseFailed, err, "bad score tag %q", m[1])
		}

		return Verdict{Confidence: score, Reason: reason}, nil
	}

	if m := scorePhrasePattern.FindStringSubmatch(answer); m != nil {
		score, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Verdict{}, errors.Wrapf(errors.ErrCodeOracleParseFailed, err, "bad score phrase %q", m[1])
		}

		return Verdict{Confidence: score, Reason: reason}, nil
	}

	return Verdict{}, errors.Newf(errors.ErrCodeOracleParseFailed, "no confidence score in answer: %.80s", answer)
}
