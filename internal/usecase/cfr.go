package usecase

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dup0630/param-ext-mcgill-phac/internal/domain"
	"github.com/dup0630/param-ext-mcgill-phac/internal/port"
)

// DefaultExtractionPrompt asks for the hospitalized CFR with the summary
// line the raw sheet's regex capture depends on. The wording was tuned
// against the graded measles corpus; override it through configuration
// only with that in mind.
const DefaultExtractionPrompt = `
Extract the values for the parameter Hospitalized Case Fatality Rate (CFR) for Measles from the provided document.
Guidelines:
1. Recognize that Case Fatality Rate (CFR) is defined as the proportion of patients who die among cases, and in this context, it should only include those who were formally admitted (hospitalized) due to illness severity.
2. If the document directly provides a percentage value for the Hospitalized CFR and no raw numbers are available, extract that percentage as the overall Hospitalized CFR without further calculation. Otherwise, extract the raw numbers (i.e., number of deaths and total hospitalized cases) used to derive the CFR.
3. Only count deaths that occurred during hospitalization. DO NOT include any death counts from cases where:
   - Hospitalization was refused (e.g., “parents refused hospitalization”),
   - Patients left against medical advice (e.g., “taken away from the ward”),
   - Any events outside the formal hospitalized setting,
   - Where the death is explicitly noted as not fully attributable to measles
   - If the document states that “no deaths during hospitalization” or similar phrasing is present, then assume the number of hospitalized deaths is 0 and calculate the CFR accordingly.
4. There are two types of CFR:
   - CFR general: Pertains to the overall population without hospital admission. Only report this if both the numerator and denominator (i.e., raw numbers) are provided or derivable, and only if hospitalized CFR is also available.
   - CFR hospitalized: Pertains to patients admitted to hospital due to illness severity. Use only data from patients that were admitted and had a conclusive outcome.
5. Studies may report both general and hospitalized CFR or allow both to be inferred. If both are available (or can be inferred), capture them as separate parameters.
6. If multiple subgroups are reported (for example, differences by nutritional status, age, consultation time, etc.), extract:
   - The individual raw numbers and the provided or calculated CFR for each subgroup.
   - Additionally, calculate an overall Hospitalized CFR as the sum of all subgroup deaths divided by the sum of all subgroup hospitalized cases.
7. Be meticulous in calculations:
   - Always recalculate the CFR using the formula: CFR (%) = (Total Hospitalized Deaths / Total Hospitalized Cases) × 100.
   - Round the calculated CFR to two decimal places.
   - Ensure the reported percentages match this calculation.
8. Handle variations in text: Recognize variations in phrases like “all cases recovered”, “no deaths reported”, “no deaths related with the outbreak”, and extract accordingly.
9. If a table is provided (Table Data), and if it contains a row with a “Total” or clearly summative numbers (e.g., 11,076 hospitalized cases and 2274 deaths), use these numbers for calculating the overall Hospitalized CFR.
10. If no value is found, or if the data do not include both the raw number of cases and deaths (or if they are from averaged long-term data rather than annual data), return "NA".

Extract the values following these guidelines.
Lastly, after completing your extraction, please provide a final summary line in the following exact format:
Overall Hospitalized CFR: <value>
where <value> is the overall Hospitalized CFR extracted from the study (or computed as described above).
`

// DefaultStandardPrompt asks for the standard-format field list parsed by
// the strict line parser.
const DefaultStandardPrompt = `
For the purpose of this extraction, Hospitalized CFR is defined as the case fatality rate among patients admitted to the hospital due to illness severity. (Studies that only include cases from peripheral facilities such as outpatient clinics or emergency room visits should not be considered for hospitalized CFR.)
Extract the following details for Hospitalized CFR from the document and format the response as plain text.
For missing values, leave them blank. (Note: '#' means the number of)
Separate multiple reports by a blank line.
- PDF: <value>
- cases confirmed: <value>
- cases suspected: <value>
- # symptomatic cases: <value>
- # hospitalized: <value>
- # deaths: <value>
- Sample size - number of observations: <value>
- Sample size - number of studies: <value>
- Age_min: <value>
- Age_max: <value>
- Parameter Value: <value>
- Parameter range - lower value: <value>
- Parameter range - upper value: <value>
- Statistical approach: <value>
- Numerator: <value>
- Denominator: <value>

Tables and Document Text:
`

var standardColumns = []string{
	"PDF",
	"cases confirmed",
	"cases suspected",
	"# symptomatic cases",
	"# hospitalized",
	"# deaths",
	"Sample size - number of observations",
	"Sample size - number of studies",
	"Age_min",
	"Age_max",
	"Parameter Value",
	"Parameter range - lower value",
	"Parameter range - upper value",
	"Statistical approach",
	"Numerator",
	"Denominator",
}

// CFROptions configures the CFR extraction run. Empty prompts fall back
// to the built-in ones.
type CFROptions struct {
	PapersDir        string
	ExtractionPrompt string
	StandardPrompt   string
	TableLimit       int
	TextLimit        int
	Verbose          bool
}

// CFRUseCase runs the CFR-specific double extraction over pre-extracted
// paper texts: one free-form call whose reply carries the mandated
// "Overall Hospitalized CFR" summary line, and one standard-format call
// parsed into fixed columns with a recalculated CFR.
type CFRUseCase struct {
	llm  port.LLM
	opts CFROptions
}

func NewCFRUseCase(llm port.LLM, opts CFROptions) *CFRUseCase {
	if opts.ExtractionPrompt == "" {
		opts.ExtractionPrompt = DefaultExtractionPrompt
	}
	if opts.StandardPrompt == "" {
		opts.StandardPrompt = DefaultStandardPrompt
	}
	if opts.TableLimit <= 0 {
		opts.TableLimit = 10000
	}
	if opts.TextLimit <= 0 {
		opts.TextLimit = 25000
	}
	return &CFRUseCase{llm: llm, opts: opts}
}

// CFRResult holds the raw-response sheet and the standard-format sheet.
type CFRResult struct {
	Raw       Table
	Standard  Table
	Processed int
	Skipped   int
	Errors    []string
}

type cfrPaper struct {
	id      string
	trueCFR string
}

// RunSampled processes the papers listed in the ground-truth CSV and
// carries their true CFR into the raw sheet.
func (u *CFRUseCase) RunSampled(truthPath string, progress ProgressFunc) (*CFRResult, error) {
	truth, err := loadTruthTable(truthPath)
	if err != nil {
		return nil, err
	}
	if !truth.hasColumn("PDF") {
		return nil, fmt.Errorf("truth table %s has no PDF column", truthPath)
	}

	cfrColumn := ""
	for _, name := range []string{"True CFR", "TrueCFR"} {
		if truth.hasColumn(name) {
			cfrColumn = name
			break
		}
	}
	if cfrColumn == "" {
		return nil, fmt.Errorf("truth table %s has no True CFR column", truthPath)
	}

	papers := make([]cfrPaper, 0, len(truth.rows))
	for _, row := range truth.rows {
		if row["PDF"] == "" {
			return nil, fmt.Errorf("truth table %s has a row with an empty PDF cell", truthPath)
		}
		papers = append(papers, cfrPaper{id: row["PDF"], trueCFR: row[cfrColumn]})
	}
	return u.run(papers, progress)
}

// RunAll processes every paper directory under the papers folder, without
// ground truth.
func (u *CFRUseCase) RunAll(progress ProgressFunc) (*CFRResult, error) {
	entries, err := os.ReadDir(u.opts.PapersDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list papers directory %s: %w", u.opts.PapersDir, err)
	}

	var papers []cfrPaper
	for _, entry := range entries {
		if entry.IsDir() {
			papers = append(papers, cfrPaper{id: entry.Name()})
		}
	}
	return u.run(papers, progress)
}

func (u *CFRUseCase) run(papers []cfrPaper, progress ProgressFunc) (*CFRResult, error) {
	result := &CFRResult{
		Raw:      Table{Columns: []string{"Papers", "True CFR", "Extracted Response", "overall CFR"}},
		Standard: Table{Columns: append(append([]string{}, standardColumns...), "calculated CFR")},
	}

	for i, paper := range papers {
		if progress != nil {
			progress(i+1, len(papers), paper.id)
		}

		folder := filepath.Join(u.opts.PapersDir, paper.id)
		text, err := readPaperText(filepath.Join(folder, paper.id+".txt"))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to read text for paper %s: %v", paper.id, err))
			result.Skipped++
			continue
		}
		if text == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("no text content for paper %s", paper.id))
			result.Skipped++
			continue
		}

		tableData, err := readTableCSV(filepath.Join(folder, paper.id+".csv"))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to read table csv for paper %s: %v", paper.id, err))
			tableData = ""
		}

		u.rawExtraction(paper, text, tableData, result)
		u.standardExtraction(paper, text, tableData, result)
		result.Processed++
		if u.opts.Verbose {
			fmt.Printf("Paper %d (%s) processed.\n", result.Processed, paper.id)
		}
	}

	return result, nil
}

func (u *CFRUseCase) rawExtraction(paper cfrPaper, text, tableData string, result *CFRResult) {
	prompt := fmt.Sprintf("\n%s\nTable Data:\n%s\nDocument Text:\n%s\n",
		u.opts.ExtractionPrompt,
		truncateRunes(tableData, u.opts.TableLimit),
		truncateRunes(text, u.opts.TextLimit))

	reply, err := u.llm.Generate([]domain.Message{domain.UserMessage(prompt)})
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("raw extraction for %s failed: %v", paper.id, err))
		result.Raw.Rows = append(result.Raw.Rows, []string{paper.id, paper.trueCFR, domain.SentinelError, ""})
		return
	}

	reply = strings.TrimSpace(reply)
	overall, _ := domain.ExtractOverallCFR(reply)
	result.Raw.Rows = append(result.Raw.Rows, []string{paper.id, paper.trueCFR, reply, overall})
}

func (u *CFRUseCase) standardExtraction(paper cfrPaper, text, tableData string, result *CFRResult) {
	prompt := fmt.Sprintf("\nPDF: %s\n%s\nTable Data:\n%s\nDocument Text:\n%s\n",
		paper.id,
		u.opts.StandardPrompt,
		truncateRunes(tableData, u.opts.TableLimit),
		truncateRunes(text, u.opts.TextLimit))

	values := map[string]string{}
	reply, err := u.llm.Generate([]domain.Message{domain.UserMessage(prompt)})
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("standard extraction for %s failed: %v", paper.id, err))
	} else {
		values, err = domain.ParseStandardText(strings.TrimSpace(reply))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("standard reply for %s did not parse: %v", paper.id, err))
			values = map[string]string{}
		}
	}

	if values["PDF"] == "" {
		values["PDF"] = paper.id
	}

	row := make([]string, 0, len(standardColumns)+1)
	for _, col := range standardColumns {
		row = append(row, values[col])
	}
	row = append(row, domain.CalculateCFR(values["Numerator"], values["Denominator"]))
	result.Standard.Rows = append(result.Standard.Rows, row)
}

func readPaperText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// readTableCSV renders a paper's extracted table CSV as plain lines of
// comma-joined cells. A missing file is simply an empty table block.
func readTableCSV(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return "", err
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = strings.Join(row, ", ")
	}
	return strings.Join(lines, "\n"), nil
}
