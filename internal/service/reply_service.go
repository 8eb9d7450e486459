package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ragmail/internal/common"
	"ragmail/internal/composer"
	"ragmail/internal/document"
	"ragmail/internal/domain"
	"ragmail/internal/index"
	"ragmail/internal/retriever"
	"ragmail/internal/runlog"
	"ragmail/internal/thread"
)

// Config wires the pipeline components together. RunLog may be nil to disable logging.
type Config struct {
	Chunker             domain.Chunker
	Index               *index.Index
	Composer            *composer.Composer
	Summarizer          domain.Summarizer
	RunLog              *runlog.Log
	Logger              *common.Logger
	TopK                int
	SummaryMaxSentences int
}

// ReplyService runs the split, index, retrieve, compose and log pipeline.
type ReplyService struct {
	splitter            *thread.Splitter
	chunker             domain.Chunker
	index               *index.Index
	retriever           *retriever.Retriever
	composer            *composer.Composer
	summarizer          domain.Summarizer
	runLog              *runlog.Log
	logger              *common.Logger
	summaryMaxSentences int
}

func NewReplyService(cfg Config) *ReplyService {
	logger := cfg.Logger
	if logger == nil {
		logger = common.NewDiscardLogger()
	}
	return &ReplyService{
		splitter:            thread.NewSplitter(logger),
		chunker:             cfg.Chunker,
		index:               cfg.Index,
		retriever:           retriever.New(cfg.Index, cfg.TopK),
		composer:            cfg.Composer,
		summarizer:          cfg.Summarizer,
		runLog:              cfg.RunLog,
		logger:              logger,
		summaryMaxSentences: cfg.SummaryMaxSentences,
	}
}

// IndexResult describes a finished index build.
type IndexResult struct {
	Source  string
	Pages   int
	Chunks  int
	Summary string
}

// IndexPath loads the document at path and indexes it.
func (s *ReplyService) IndexPath(ctx context.Context, path string) (IndexResult, error) {
	doc, err := document.Load(path)
	if err != nil {
		return IndexResult{}, err
	}
	return s.IndexDocument(ctx, doc)
}

// IndexDocument chunks doc and replaces the stored index with its chunks.
func (s *ReplyService) IndexDocument(ctx context.Context, doc domain.Document) (IndexResult, error) {
	chunks, err := s.chunker.Chunk(doc)
	if err != nil {
		return IndexResult{}, fmt.Errorf("chunk %s: %w", doc.Source, err)
	}
	if len(chunks) == 0 {
		s.logger.Warnf("%s has no extractable text, the index will be empty", doc.Source)
	}
	n, err := s.index.Build(ctx, chunks)
	if err != nil {
		return IndexResult{}, err
	}
	s.logger.Debugf("indexed %s: %d pages, %d chunks", doc.Source, doc.Pages, n)
	res := IndexResult{Source: doc.Source, Pages: doc.Pages, Chunks: n}
	if s.summarizer != nil && strings.TrimSpace(doc.Text) != "" {
		summary, err := s.summarizer.Summarize(doc.Text, s.summaryMaxSentences)
		if err != nil {
			return IndexResult{}, fmt.Errorf("summarize %s: %w", doc.Source, err)
		}
		res.Summary = summary
	}
	return res, nil
}

// ReplyRequest is one reply run. When both Document and DocumentPath are set, Document wins.
// Without a document, retrieval runs only if UseIndex asks for the previously built index.
type ReplyRequest struct {
	RawThread    string
	Subject      string
	From         string
	DocumentPath string
	Document     *domain.Document
	UseIndex     bool
	Model        string
	PersonaPath  string
	NoLog        bool
}

// ReplyResult carries everything a run produced.
type ReplyResult struct {
	Thread  domain.EmailThread
	Index   *IndexResult
	Context *string
	Reply   string
	Entry   *domain.LogEntry
}

// Reply drafts a response to the newest message of req.RawThread.
func (s *ReplyService) Reply(ctx context.Context, req ReplyRequest) (*ReplyResult, error) {
	th := s.splitter.Split(req.RawThread)
	th.Subject, th.From = req.Subject, req.From
	res := &ReplyResult{Thread: th}

	retrieve := req.UseIndex
	switch {
	case req.Document != nil:
		ir, err := s.IndexDocument(ctx, *req.Document)
		if err != nil {
			return nil, err
		}
		res.Index, retrieve = &ir, true
	case req.DocumentPath != "":
		ir, err := s.IndexPath(ctx, req.DocumentPath)
		if err != nil {
			return nil, err
		}
		res.Index, retrieve = &ir, true
	}

	if retrieve {
		text, err := s.retriever.Retrieve(ctx, retriever.BuildQuery(th.CurrentMessage), 0)
		switch {
		case errors.Is(err, domain.ErrIndexNotFound):
			s.logger.Warnf("no indexed content to retrieve from, replying without document context")
		case err != nil:
			return nil, err
		default:
			res.Context = &text
		}
	}

	in := composer.Input{Thread: th, Context: res.Context, Model: req.Model, PersonaPath: req.PersonaPath}
	reply, err := s.composer.Compose(ctx, in)
	if err != nil {
		return nil, err
	}
	res.Reply = reply

	if s.runLog != nil && !req.NoLog {
		entry := s.runLog.NewEntry(s.composer.Model(in), th, res.Context, reply)
		if err := s.runLog.Append(entry); err != nil {
			return nil, err
		}
		res.Entry = &entry
	}
	return res, nil
}

// Search queries the current index with text as typed, without the reply framing.
func (s *ReplyService) Search(ctx context.Context, text string, k int) ([]domain.SearchResult, error) {
	return s.retriever.Search(ctx, text, k)
}

func (s *ReplyService) Close() error {
	return s.index.Close()
}
