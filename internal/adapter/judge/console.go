package judge

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dup0630/param-ext-mcgill-phac/internal/domain"
)

// ConsoleJudge asks a human reviewer on the terminal to grade one
// extraction. Both answers are re-asked until a recognised label comes
// back, so a typo never lands in the ledger.
type ConsoleJudge struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewConsoleJudge(in io.Reader, out io.Writer) *ConsoleJudge {
	return &ConsoleJudge{in: bufio.NewScanner(in), out: out}
}

func (j *ConsoleJudge) Judge(parameter, paperID, extracted, truth string) (domain.Judgment, error) {
	fmt.Fprintf(j.out, "\nPaper: %s\n", paperID)
	fmt.Fprintf(j.out, "Parameter: %s\n", parameter)
	fmt.Fprintf(j.out, "Extracted: %s\n", extracted)
	fmt.Fprintf(j.out, "True: %s\n", truth)

	var judgment domain.Judgment
	for {
		answer, err := j.ask("Was it successful? (Success/Fail):")
		if err != nil {
			return domain.Judgment{}, err
		}
		switch strings.ToLower(answer) {
		case "success":
			judgment.Success = domain.SuccessLabel
		case "fail":
			judgment.Success = domain.FailLabel
		default:
			fmt.Fprintf(j.out, "Please answer Success or Fail.\n")
			continue
		}
		break
	}

	for {
		answer, err := j.ask("Is it a TP/TN/FP/FN: ")
		if err != nil {
			return domain.Judgment{}, err
		}
		conf := domain.Confusion(strings.ToUpper(answer))
		if !conf.Valid() {
			fmt.Fprintf(j.out, "Please answer TP, TN, FP or FN.\n")
			continue
		}
		judgment.Confusion = conf
		break
	}

	return judgment, nil
}

func (j *ConsoleJudge) ask(prompt string) (string, error) {
	fmt.Fprint(j.out, prompt)
	if !j.in.Scan() {
		if err := j.in.Err(); err != nil {
			return "", fmt.Errorf("failed to read answer: %w", err)
		}
		return "", fmt.Errorf("input closed before an answer was given")
	}
	return strings.TrimSpace(j.in.Text()), nil
}

// JudgeCall records the arguments of one StubJudge invocation.
type JudgeCall struct {
	Parameter string
	PaperID   string
	Extracted string
	Truth     string
}

// StubJudge returns scripted judgments in order, repeating the last one
// once the script runs out.
type StubJudge struct {
	Judgments []domain.Judgment
	Err       error
	Calls     []JudgeCall
}

func (s *StubJudge) Judge(parameter, paperID, extracted, truth string) (domain.Judgment, error) {
	s.Calls = append(s.Calls, JudgeCall{Parameter: parameter, PaperID: paperID, Extracted: extracted, Truth: truth})
	if s.Err != nil {
		return domain.Judgment{}, s.Err
	}
	if len(s.Judgments) == 0 {
		return domain.Judgment{}, fmt.Errorf("no scripted judgment")
	}
	i := len(s.Calls) - 1
	if i >= len(s.Judgments) {
		i = len(s.Judgments) - 1
	}
	return s.Judgments[i], nil
}
